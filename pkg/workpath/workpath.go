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

package workpath

import (
	"io/fs"
	"os"

	"github.com/hashicorp/go-multierror"
)

// Workpath is the interface used for init project path.
type Workpath interface {
	WorkHome() string
	WorkHomeMode() fs.FileMode
	LogDir() string
	DataDir() string
	DataDirMode() fs.FileMode
}

type workpath struct {
	workHome     string
	workHomeMode fs.FileMode
	logDir       string
	dataDir      string
	dataDirMode  fs.FileMode
}

// Option is a functional option for configuring the workpath.
type Option func(w *workpath)

// WithWorkHome set the workhome directory.
func WithWorkHome(dir string) Option {
	return func(w *workpath) {
		w.workHome = dir
	}
}

// WithWorkHomeMode sets the workHome directory mode.
func WithWorkHomeMode(mode fs.FileMode) Option {
	return func(w *workpath) {
		w.workHomeMode = mode
	}
}

// WithLogDir set the log directory.
func WithLogDir(dir string) Option {
	return func(w *workpath) {
		w.logDir = dir
	}
}

// WithDataDir set the directory of exported files.
func WithDataDir(dir string) Option {
	return func(w *workpath) {
		w.dataDir = dir
	}
}

// WithDataDirMode sets the dataDir mode.
func WithDataDirMode(mode fs.FileMode) Option {
	return func(w *workpath) {
		w.dataDirMode = mode
	}
}

// New creates the project directories and returns their paths.
func New(options ...Option) (Workpath, error) {
	w := &workpath{
		workHome:     DefaultWorkHome,
		workHomeMode: DefaultWorkHomeMode,
		logDir:       DefaultLogDir,
		dataDir:      DefaultDataDir,
		dataDirMode:  DefaultDataDirMode,
	}

	for _, opt := range options {
		opt(w)
	}

	var errs *multierror.Error

	// Create workhome directory.
	if err := os.MkdirAll(w.workHome, w.workHomeMode); err != nil {
		errs = multierror.Append(errs, err)
	}

	// Create log directory.
	if err := os.MkdirAll(w.logDir, fs.FileMode(0700)); err != nil {
		errs = multierror.Append(errs, err)
	}

	// Create data directory.
	if err := os.MkdirAll(w.dataDir, w.dataDirMode); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *workpath) WorkHome() string {
	return w.workHome
}

func (w *workpath) WorkHomeMode() fs.FileMode {
	return w.workHomeMode
}

func (w *workpath) LogDir() string {
	return w.logDir
}

func (w *workpath) DataDir() string {
	return w.dataDir
}

func (w *workpath) DataDirMode() fs.FileMode {
	return w.dataDirMode
}
