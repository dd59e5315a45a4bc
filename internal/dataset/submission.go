package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteSubmission writes a header and one id,label row per prediction
func WriteSubmission(w io.Writer, header []string, ids []string, labels []int) error {
	if len(header) != 2 {
		return fmt.Errorf("submission header must have two columns, got %d", len(header))
	}
	if len(ids) != len(labels) {
		return fmt.Errorf("%d ids but %d labels", len(ids), len(labels))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, id := range ids {
		if err := cw.Write([]string{id, strconv.Itoa(labels[i])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSubmissionFile creates path and writes the submission into it
func WriteSubmissionFile(path string, header []string, ids []string, labels []int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create submission directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := WriteSubmission(bw, header, ids, labels); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
