// internal/snapshot/file.go
package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/ecterceocgan/deck-divide-dollar/service/internal/training"
)

// FileStore writes whitespace-separated text tables into a directory:
//
//	Q-<n>.txt                  one row per state, %.8f per action
//	policy_pi-<n>.txt          greedy action ordinal per state
//	action_reward_count-<n>.txt
//	action_reward_sum-<n>.txt
//
// where n is the number of completed episodes. Per-episode traces go to
// fraction_won-<total>.txt and score_every_game-<total>.txt.
type FileStore struct {
	dir string
	log logrus.FieldLogger

	mu       sync.Mutex
	files    []*os.File
	fraction *bufio.Writer
	scores   *bufio.Writer
}

// NewFileStore creates dir if needed and opens the per-episode trace files
// for a run of total episodes.
func NewFileStore(dir string, total int, log logrus.FieldLogger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	s := &FileStore{dir: dir, log: log}
	var err error
	if s.fraction, err = s.open(fmt.Sprintf("fraction_won-%d.txt", total)); err != nil {
		return nil, err
	}
	if s.scores, err = s.open(fmt.Sprintf("score_every_game-%d.txt", total)); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *FileStore) open(name string) (*bufio.Writer, error) {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	s.files = append(s.files, f)
	return bufio.NewWriter(f), nil
}

// Dir returns the output directory.
func (s *FileStore) Dir() string { return s.dir }

// RecordEpisode appends the running win fraction and the episode's final
// scores. It matches training.EpisodeFunc.
func (s *FileStore) RecordEpisode(ep training.EpisodeSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.fraction, "%.3f\n", ep.WinFraction); err != nil {
		return err
	}
	parts := make([]string, len(ep.Scores))
	for i, v := range ep.Scores {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	_, err := fmt.Fprintln(s.scores, strings.Join(parts, " "))
	return err
}

// Save writes the four tables of snap.
func (s *FileStore) Save(_ context.Context, snap training.Snapshot) error {
	n := snap.Episode
	tab := snap.Tables
	writes := []struct {
		name string
		fill func(*bufio.Writer) error
	}{
		{fmt.Sprintf("Q-%d.txt", n), func(w *bufio.Writer) error { return writeMatrix(w, tab.Q, "%.8f") }},
		{fmt.Sprintf("policy_pi-%d.txt", n), func(w *bufio.Writer) error {
			for _, a := range tab.Policy {
				if _, err := fmt.Fprintf(w, "%d\n", a); err != nil {
					return err
				}
			}
			return nil
		}},
		{fmt.Sprintf("action_reward_count-%d.txt", n), func(w *bufio.Writer) error { return writeMatrix(w, tab.Count, "%.0f") }},
		{fmt.Sprintf("action_reward_sum-%d.txt", n), func(w *bufio.Writer) error { return writeMatrix(w, tab.Sum, "%.0f") }},
	}
	for _, wr := range writes {
		if err := writeFile(filepath.Join(s.dir, wr.name), wr.fill); err != nil {
			return fmt.Errorf("writing %s: %w", wr.name, err)
		}
	}

	// Keep the trace files current with what the tables reflect.
	s.mu.Lock()
	err := s.flushLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.log != nil {
		s.log.WithFields(logrus.Fields{"dir": s.dir, "episode": n}).Debug("Wrote snapshot files.")
	}
	return nil
}

// Close flushes and closes the trace files.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := []error{s.flushLocked()}
	for _, f := range s.files {
		errs = append(errs, f.Close())
	}
	s.files = nil
	s.fraction, s.scores = nil, nil
	return errors.Join(errs...)
}

func (s *FileStore) flushLocked() error {
	var errs []error
	for _, w := range []*bufio.Writer{s.fraction, s.scores} {
		if w != nil {
			errs = append(errs, w.Flush())
		}
	}
	return errors.Join(errs...)
}

func writeFile(path string, fill func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeMatrix(w *bufio.Writer, m *mat.Dense, format string) error {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				if err := w.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, format, m.At(r, c)); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}
