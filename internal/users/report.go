package users

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"sqlwrap/internal/platform/sqlite"
)

const (
	reportAll   = "SELECT * FROM users"
	reportOlder = "SELECT * FROM users WHERE age > ?"
	olderAge    = 40
)

// FetchConcurrently runs the all-users and older-than-40 queries at the same
// time, each on its own connection, and prints both result sets to w.
// The all-users section is always printed first. Nothing is printed when
// either query fails.
func FetchConcurrently(ctx context.Context, open sqlite.Opener, w io.Writer) (all, older sqlite.ResultSet, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		all, err = sqlite.FetchAll(ctx, open, reportAll)
		return err
	})
	g.Go(func() error {
		var err error
		older, err = sqlite.FetchAll(ctx, open, reportOlder, olderAge)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if err := PrintReport(w, all, older); err != nil {
		return nil, nil, err
	}
	return all, older, nil
}

// PrintReport writes both sections of the concurrent report.
func PrintReport(w io.Writer, all, older sqlite.ResultSet) error {
	if err := printSection(w, "All Users:", all); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return printSection(w, fmt.Sprintf("Users older than %d:", olderAge), older)
}

func printSection(w io.Writer, title string, rows sqlite.ResultSet) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}
	return nil
}
