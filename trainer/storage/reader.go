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

package storage

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/creditrisk/harness/trainer/record"
)

// Reader reads csv lines as raw rows. Lines with more values than columns
// drop the extra values, lines with fewer values miss the trailing fields.
type Reader struct {
	csv     gocsv.CSVReader
	columns []string
	closer  io.Closer
}

// NewReader returns a reader of the given columns. When columns is empty
// the first line is read as the header.
func NewReader(r io.Reader, columns ...string) *Reader {
	reader := &Reader{
		csv:     gocsv.DefaultCSVReader(r),
		columns: columns,
	}
	if c, ok := r.(io.Closer); ok {
		reader.closer = c
	}

	if cr, ok := reader.csv.(*csv.Reader); ok {
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
	}

	return reader
}

// Open opens the csv file, reading the header from its first line when
// header is set, otherwise assigning the given columns.
func Open(path string, header bool, columns ...string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if header {
		return NewReader(file), nil
	}

	return NewReader(file, columns...), nil
}

// Read returns the next row, or io.EOF after the last line.
func (r *Reader) Read() (record.Row, error) {
	if len(r.columns) == 0 {
		header, err := r.csv.Read()
		if err != nil {
			return nil, err
		}

		r.columns = make([]string, len(header))
		for i, column := range header {
			r.columns[i] = strings.TrimSpace(column)
		}
	}

	values, err := r.csv.Read()
	if err != nil {
		return nil, err
	}

	row := make(record.Row, len(r.columns))
	for i, column := range r.columns {
		if i >= len(values) {
			break
		}
		row[column] = strings.TrimSpace(values[i])
	}

	return row, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}
