package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/services"
)

// scoresLocation is where the high score table is stored.
var scoresLocation = domain.NewLocation("scores", "high.toml")

// maxScores is the size of the high score table.
const maxScores = 10

// scoreEntry is one row of the high score table.
type scoreEntry struct {
	Name  string    `toml:"name"`
	Score int       `toml:"score"`
	Date  time.Time `toml:"date"`
}

// highScores is the table owned by the scores commands. Its write and read
// methods are the transfer functions of its persistent file.
type highScores struct {
	Entries []scoreEntry `toml:"entries"`
}

// add inserts e in score order, keeping the best maxScores entries.
// It reports whether e made the table.
func (h *highScores) add(e scoreEntry) bool {
	i, _ := slices.BinarySearchFunc(h.Entries, e, func(have, want scoreEntry) int {
		// Descending by score; ties keep the older entry first.
		if c := cmp.Compare(want.Score, have.Score); c != 0 {
			return c
		}
		return -1
	})
	if i >= maxScores {
		return false
	}
	h.Entries = slices.Insert(h.Entries, i, e)
	if len(h.Entries) > maxScores {
		h.Entries = h.Entries[:maxScores]
	}
	return true
}

func (h *highScores) write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(h)
}

func (h *highScores) read(r io.Reader) error {
	var next highScores
	if err := toml.NewDecoder(r).Decode(&next); err != nil {
		return fmt.Errorf("decoding high scores: %w", err)
	}
	*h = next
	return nil
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show or update the high score table",
	Long: `A small example of a persistent file: a high score table stored as
TOML in scores/high.toml on the configured device.`,
	RunE: runScoresShow,
}

var scoresShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the high score table",
	Args:  cobra.NoArgs,
	RunE:  runScoresShow,
}

var scoresAddCmd = &cobra.Command{
	Use:   "add [name] [score]",
	Short: "Record a score",
	Args:  cobra.ExactArgs(2),
	RunE:  runScoresAdd,
}

func init() {
	scoresCmd.AddCommand(scoresShowCmd)
	scoresCmd.AddCommand(scoresAddCmd)
	rootCmd.AddCommand(scoresCmd)
}

func runScoresShow(cmd *cobra.Command, _ []string) error {
	table := &highScores{}
	file := services.NewPersistentFile(scoresLocation, table.write, table.read)

	s, err := openSession(cmd.Context(), file)
	if err != nil {
		return err
	}
	defer s.Close()

	file.Load()
	if !file.Loaded() {
		return fmt.Errorf("failed to load %s; run with --verbose for details", scoresLocation)
	}

	if len(table.Entries) == 0 {
		cmd.Println("No high scores yet.")
		return nil
	}

	cmd.Println("High Scores")
	cmd.Println("===========")
	for i, e := range table.Entries {
		cmd.Printf("%2d. %-16s %8d  %s\n", i+1, e.Name, e.Score, e.Date.Local().Format(time.DateOnly))
	}
	return nil
}

func runScoresAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("name must not be empty")
	}
	score, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid score %q: %w", args[1], err)
	}

	table := &highScores{}
	results := make(chan domain.SaveResult, 1)
	file := services.NewPersistentFile(scoresLocation, table.write, table.read,
		services.WithSaveObserver(func(r domain.SaveResult) { results <- r }))

	ctx := cmd.Context()
	s, err := openSession(ctx, file)
	if err != nil {
		return err
	}
	defer s.Close()

	// Never save over a table that could not be read.
	file.Load()
	if !file.Loaded() {
		return fmt.Errorf("failed to load %s; not saving", scoresLocation)
	}

	entry := scoreEntry{Name: name, Score: score, Date: time.Now().UTC().Truncate(time.Second)}
	if !table.add(entry) {
		cmd.Printf("%d did not make the top %d.\n", score, maxScores)
		return nil
	}

	result, err := s.save(ctx, file, results)
	if err != nil {
		return err
	}
	if result.Err != nil {
		return fmt.Errorf("failed to save high scores: %w", result.Err)
	}

	cmd.Printf("Recorded %s: %d\n", name, score)
	return nil
}
