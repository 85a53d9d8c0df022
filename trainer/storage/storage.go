/*
 *     Copyright 2024 The Harness Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:generate mockgen -destination mocks/storage_mock.go -source storage.go -package mocks

package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/creditrisk/harness/pkg/types"
	"github.com/creditrisk/harness/trainer/record"
)

const (
	// TuningFilePrefix is prefix of tuning history file name.
	TuningFilePrefix = "tuning"

	// ClassifiedFilePrefix is prefix of classified records file name.
	ClassifiedFilePrefix = "classified"

	// ClassificationColumn is the column of the predicted label in classified files.
	ClassificationColumn = "classification"
)

// Trial is a row of the tuning history file.
type Trial struct {
	// ID is the trial id.
	ID string `csv:"id"`

	// Algorithm is the classifier algorithm.
	Algorithm string `csv:"algorithm"`

	// Config is the readable classifier configuration.
	Config string `csv:"config"`

	// Policy is the scoring policy name.
	Policy string `csv:"policy"`

	// Quality is the score of the trial.
	Quality float64 `csv:"quality"`
}

// Storage is the interface used for storage.
type Storage interface {
	// CreateTuning writes the tuning history of the dataset into a csv file.
	CreateTuning(datasetName string, trials []Trial) error

	// ListTuning returns the tuning history of the dataset.
	ListTuning(datasetName string) ([]Trial, error)

	// CreateClassified appends classified records of the dataset into a csv file.
	CreateClassified(datasetName string, records []*record.Record) error

	// OpenClassified opens the classified records file of the dataset for read.
	OpenClassified(datasetName string) (io.ReadCloser, error)

	// ClearTuning removes the tuning history of the dataset.
	ClearTuning(datasetName string) error

	// Clear removes all files.
	Clear() error
}

type storage struct {
	baseDir        string
	tuningKeys     cmap.ConcurrentMap[struct{}]
	classifiedKeys cmap.ConcurrentMap[struct{}]
}

// New returns a new Storage instance.
func New(baseDir string) Storage {
	return &storage{
		baseDir:        baseDir,
		tuningKeys:     cmap.New[struct{}](),
		classifiedKeys: cmap.New[struct{}](),
	}
}

// CreateTuning writes the tuning history of the dataset into a csv file,
// replacing the previous one.
func (s *storage) CreateTuning(datasetName string, trials []Trial) error {
	file, err := os.OpenFile(s.tuningFilename(datasetName), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&trials, file); err != nil {
		if err := os.Remove(s.tuningFilename(datasetName)); err != nil {
			return err
		}

		return err
	}

	s.tuningKeys.Set(datasetName, struct{}{})
	return nil
}

// ListTuning returns the tuning history of the dataset.
func (s *storage) ListTuning(datasetName string) ([]Trial, error) {
	file, err := os.Open(s.tuningFilename(datasetName))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var trials []Trial
	if err := gocsv.UnmarshalFile(file, &trials); err != nil {
		return nil, err
	}

	return trials, nil
}

// CreateClassified appends classified records of the dataset into a csv
// file, the header is written when the file is created.
func (s *storage) CreateClassified(datasetName string, records []*record.Record) error {
	if len(records) == 0 {
		return nil
	}

	schema := records[0].Schema()
	for _, r := range records {
		if r.Tag() != record.Classified {
			return fmt.Errorf("record %s is not classified", r)
		}

		if r.Schema() != schema {
			return fmt.Errorf("record schema %s does not match schema %s", r.Schema().Name, schema.Name)
		}
	}

	filename := s.classifiedFilename(datasetName)
	info, err := os.Stat(filename)
	header := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	columns := append(schema.FeatureNames(), ClassificationColumn)
	w := gocsv.DefaultCSVWriter(file)
	if header {
		if err := w.Write(columns); err != nil {
			return err
		}
	}

	for _, r := range records {
		fields := r.Fields()
		fields[ClassificationColumn], _ = r.Prediction()

		line := make([]string, len(columns))
		for i, column := range columns {
			line[i] = fields[column]
		}

		if err := w.Write(line); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	s.classifiedKeys.Set(datasetName, struct{}{})
	return nil
}

// OpenClassified opens the classified records file of the dataset for read.
func (s *storage) OpenClassified(datasetName string) (io.ReadCloser, error) {
	file, err := os.Open(s.classifiedFilename(datasetName))
	if err != nil {
		return nil, err
	}

	return file, nil
}

// ClearTuning removes the tuning history of the dataset.
func (s *storage) ClearTuning(datasetName string) error {
	if err := os.Remove(s.tuningFilename(datasetName)); err != nil {
		return err
	}

	s.tuningKeys.Remove(datasetName)
	return nil
}

// Clear removes all files.
func (s *storage) Clear() error {
	keys := s.tuningKeys.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		if err := os.Remove(s.tuningFilename(key)); err != nil {
			return err
		}
		s.tuningKeys.Remove(key)
	}

	keys = s.classifiedKeys.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		if err := os.Remove(s.classifiedFilename(key)); err != nil {
			return err
		}
		s.classifiedKeys.Remove(key)
	}

	return nil
}

// tuningFilename generates tuning history file name based on the given dataset name.
func (s *storage) tuningFilename(datasetName string) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s-%s.%s", TuningFilePrefix, datasetName, types.CSVFileExt))
}

// classifiedFilename generates classified records file name based on the given dataset name.
func (s *storage) classifiedFilename(datasetName string) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s-%s.%s", ClassifiedFilePrefix, datasetName, types.CSVFileExt))
}
