// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
	ts "github.com/samuelfneumann/streamlearn/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
	Data() []float64
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "loadData: could not open data file")
	}
	defer file.Close()

	var data []float64
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&data); err != nil {
		return nil, errors.Wrap(err, "loadData: could not decode data")
	}
	return data, nil
}

// save encodes data to filename
func save(filename string, data []float64) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "save: could not open save file")
	}

	en := gob.NewEncoder(file)
	if err := en.Encode(data); err != nil {
		file.Close()
		return errors.Wrap(err, "save: could not encode data")
	}
	return file.Close()
}
