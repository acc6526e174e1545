package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/services"
)

var putCmd = &cobra.Command{
	Use:   "put [container] [name]",
	Short: "Save standard input to a file",
	Long: `Reads standard input and saves it as a persistent file on the
configured device. The location can be given as "container name" or as a
single "container/name" path.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

var catCmd = &cobra.Command{
	Use:   "cat [container] [name]",
	Short: "Print a file to standard output",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCat,
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored files",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

func init() {
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(lsCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	loc, err := parseLocation(args)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	results := make(chan domain.SaveResult, 1)
	file := services.NewPersistentFile(loc,
		func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		},
		nil,
		services.WithSaveObserver(func(r domain.SaveResult) { results <- r }),
	)

	ctx := cmd.Context()
	s, err := openSession(ctx, file)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.save(ctx, file, results)
	if err != nil {
		return err
	}
	if result.Err != nil {
		return fmt.Errorf("failed to save %s: %w", loc, result.Err)
	}

	cmd.Printf("Saved %s (%d bytes in %s)\n", loc, len(data), result.Duration().Round(time.Millisecond))
	return nil
}

func runCat(cmd *cobra.Command, args []string) error {
	loc, err := parseLocation(args)
	if err != nil {
		return err
	}

	found := false
	file := services.NewPersistentFile(loc, nil, func(r io.Reader) error {
		found = true
		_, err := io.Copy(cmd.OutOrStdout(), r)
		return err
	})

	s, err := openSession(cmd.Context(), file)
	if err != nil {
		return err
	}
	defer s.Close()

	file.Load()
	if !file.Loaded() {
		return fmt.Errorf("failed to load %s; run with --verbose for details", loc)
	}
	if !found {
		return fmt.Errorf("%s: %w", loc, domain.ErrNotFound)
	}
	return nil
}

func runLs(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	lister, ok := s.device.(driven.FileLister)
	if !ok {
		return errors.New("the configured device cannot list files")
	}

	locs, err := lister.List()
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(locs) == 0 {
		cmd.Println("No files stored.")
		return nil
	}
	for _, loc := range locs {
		cmd.Println(loc.String())
	}
	return nil
}
