package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/streamlearn/agent/streamtd"
	"github.com/samuelfneumann/streamlearn/environment/randomwalk"
	"github.com/samuelfneumann/streamlearn/experiment"
	"github.com/samuelfneumann/streamlearn/experiment/tracker"
	"github.com/samuelfneumann/streamlearn/solver"
)

// config is the default optimizer configuration, used when no
// configuration file is given as the first argument
const config = `{
	"Type": "AdaptiveObGD",
	"Config": {
		"StepSize": 1.0,
		"Gamma": 0.99,
		"Lambda": 0.8,
		"Kappa": 2.0,
		"Beta2": 0.999,
		"Epsilon": 1e-8
	}
}`

func main() {
	var seed uint64 = 192382

	data := []byte(config)
	if len(os.Args) > 1 {
		var err error
		if data, err = os.ReadFile(os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "could not read config: %v\n", err)
			os.Exit(1)
		}
	}

	var s solver.Solver
	if err := json.Unmarshal(data, &s); err != nil {
		fmt.Fprintf(os.Stderr, "could not parse config: %v\n", err)
		os.Exit(1)
	}

	// Create the environment
	c := randomwalk.Config{States: 19, LeftReward: -1, RightReward: 1,
		Discount: 1}
	env, _, err := randomwalk.New(c, nil, seed)
	if err != nil {
		panic(err)
	}

	// Create the learner
	vf, err := streamtd.NewLinear(c.States)
	if err != nil {
		panic(err)
	}
	opt, err := s.Create(vf.Params())
	if err != nil {
		panic(err)
	}
	learner, err := streamtd.New(vf, opt)
	if err != nil {
		panic(err)
	}

	// Experiment
	valueError, err := tracker.NewValueError("./rmsve.bin", learner,
		env.Observations(), env.Values())
	if err != nil {
		panic(err)
	}
	e := experiment.NewOnline(env, learner, 100_000, valueError)
	if err := e.Run(); err != nil {
		panic(err)
	}
	if err := e.Save(); err != nil {
		panic(err)
	}

	rmsve, err := tracker.LoadData("./rmsve.bin")
	if err != nil {
		panic(err)
	}
	fmt.Println(&s)
	fmt.Println(rmsve[len(rmsve)-10:])
}
