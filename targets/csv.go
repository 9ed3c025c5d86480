// Package targets loads the recipient list of a bag. Order is significant:
// it fixes the shape of the commitment tree and every hash derived from it.
package targets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/log"
	"github.com/colorfulnotion/securethebag/types"
)

// Read loads targets from a CSV file of puzzle_hash,amount records.
func Read(path string) ([]types.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets %s: %w", path, err)
	}
	defer f.Close()

	targets, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug(log.CLIMonitoring, "targets loaded", "path", path, "count", len(targets))
	return targets, nil
}

// Parse reads puzzle_hash,amount records. Blank lines are skipped and a
// leading header row is tolerated.
func Parse(r io.Reader) ([]types.Target, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var targets []types.Target
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", bagerrors.ErrTargetsFormat, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", bagerrors.ErrTargetsFormat, line, len(rec))
		}
		if len(targets) == 0 && isHeader(rec) {
			continue
		}
		ph, err := common.ParseHash(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", bagerrors.ErrTargetsFormat, line, err)
		}
		amount, err := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: amount %q: %v", bagerrors.ErrTargetsFormat, line, rec[1], err)
		}
		targets = append(targets, types.Target{PuzzleHash: ph, Amount: amount})
	}
	return targets, nil
}

func isHeader(rec []string) bool {
	_, err := common.ParseHash(rec[0])
	_, err2 := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 64)
	return err != nil && err2 != nil
}

// Write emits targets in the format Parse reads.
func Write(w io.Writer, targets []types.Target) error {
	cw := csv.NewWriter(w)
	for _, t := range targets {
		if err := cw.Write([]string{t.PuzzleHash.Hex(), strconv.FormatUint(t.Amount, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
