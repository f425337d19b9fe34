package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"sqlwrap/internal/app"
)

var cli struct {
	Connect struct{} `cmd:"" help:"Print every user through a scoped connection."`

	Query struct {
		MinAge int `default:"25" help:"Print users strictly older than this age."`
	} `cmd:"" help:"Run a scoped parameterized query."`

	Concurrent struct{} `cmd:"" help:"Fetch all users and users older than 40 concurrently."`

	Fetch struct {
		SQL    string   `arg:"" name:"sql" help:"Query to run."`
		Args   []string `arg:"" optional:"" help:"Positional bind arguments."`
		Repeat int      `default:"2" help:"How many times to run the query; repeats are served from the cache."`
	} `cmd:"" help:"Run a query through the logging, caching and retrying pipeline."`

	Get struct {
		ID int64 `arg:"" help:"User id."`
	} `cmd:"" help:"Print one user."`

	SetEmail struct {
		ID    int64  `arg:"" help:"User id."`
		Email string `arg:"" help:"New email address."`
	} `cmd:"" help:"Change a user's email inside a transaction."`

	Stream struct {
		Raw bool `help:"Stream untyped rows instead of users."`
	} `cmd:"" help:"Print users one at a time."`

	Wait struct{} `cmd:"" help:"Wait until the database can be opened."`

	Migrate struct{} `cmd:"" help:"Create or upgrade the users table."`

	Watch struct {
		Schedule string `help:"Cron schedule, defaults to WATCH_SCHEDULE."`
		Overlap  string `help:"What to do when a run is still active: skip, delay or allow. Defaults to WATCH_OVERLAP."`
	} `cmd:"" help:"Print the concurrent report on a schedule until interrupted."`
}

func main() {
	kongCtx := kong.Parse(&cli,
		kong.Name("sqlwrap"),
		kong.Description("Scoped SQLite connections and composable query wrappers."),
		kong.UsageOnError(),
	)

	a, err := app.New()
	kongCtx.FatalIfErrorf(err)
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd := strings.Fields(kongCtx.Command())[0]; cmd {
	case "connect":
		err = a.Connect(ctx)
	case "query":
		err = a.Query(ctx, cli.Query.MinAge)
	case "concurrent":
		err = a.Concurrent(ctx)
	case "fetch":
		args := make([]any, len(cli.Fetch.Args))
		for i, v := range cli.Fetch.Args {
			args[i] = v
		}
		err = a.Fetch(ctx, cli.Fetch.SQL, args, cli.Fetch.Repeat)
	case "get":
		err = a.Get(ctx, cli.Get.ID)
	case "set-email":
		err = a.SetEmail(ctx, cli.SetEmail.ID, cli.SetEmail.Email)
	case "stream":
		err = a.Stream(ctx, cli.Stream.Raw)
	case "wait":
		err = a.Wait(ctx)
	case "migrate":
		err = a.Migrate(ctx)
	case "watch":
		err = a.Watch(ctx, cli.Watch.Schedule, cli.Watch.Overlap)
	default:
		panic("unhandled command " + cmd)
	}

	if err != nil {
		stop()
		_ = a.Close()
		kongCtx.Fatalf("%s", err)
	}
}
