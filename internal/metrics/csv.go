// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package metrics appends one (index, millis) row per run to a per-capacity
// CSV file, the Go equivalent of the original client's write_to_csv. There
// is no third-party CSV library anywhere in the corpus, so this is one of
// the few places this module reaches for the standard library's
// encoding/csv instead - nothing in the example set offers anything it
// would be worth wrapping.
package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

var header = []string{"index", "millis"}

// RecordSigningTime appends a row to exp-sign-<capacity>.csv, writing the
// header first only if the file did not already exist.
func RecordSigningTime(index, capacity, millis int) error {
	filename := fmt.Sprintf("exp-sign-%d.csv", capacity)

	_, statErr := os.Stat(filename)
	exists := statErr == nil

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filename)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(header); err != nil {
			return errors.Wrap(err, "writing csv header")
		}
	}
	row := []string{strconv.Itoa(index), strconv.Itoa(millis)}
	if err := w.Write(row); err != nil {
		return errors.Wrap(err, "writing csv row")
	}
	w.Flush()
	return w.Error()
}
