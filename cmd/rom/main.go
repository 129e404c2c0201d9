package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	omclient "github.com/berickus/redis-om-spring/client"
	"github.com/berickus/redis-om-spring/schema"
	"github.com/berickus/redis-om-spring/searchquery"
)

var (
	addrFlag = &cli.StringFlag{
		Name:    "addr",
		Aliases: []string{"a"},
		Usage:   "Redis server address",
		Value:   "localhost:6379",
	}
	indexFlag = &cli.StringFlag{
		Name:     "index",
		Aliases:  []string{"i"},
		Usage:    "Search index name",
		Required: true,
	}
	dialectFlag = &cli.IntFlag{
		Name:  "dialect",
		Usage: "Query dialect version",
		Value: 1,
	}
)

func main() {
	cmd := &cli.Command{
		Name:  "rom",
		Usage: "Run search, aggregation and delete queries against Redis OM indexes",
		Flags: []cli.Flag{addrFlag, indexFlag, dialectFlag},
		Commands: []*cli.Command{
			newSearchCommand(),
			newAggregateCommand(),
			newTagValsCommand(),
			newDeleteCommand(),
			newExportCommand(),
			newSuggestCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// queryContext builds the client and binds a plan against a bare schema for
// the configured index. CLI queries are written in raw index field names, so
// every property falls through the schema's alias fallback unchanged.
func queryContext(cmd *cli.Command, plan *searchquery.Plan) (*omclient.Client, *omclient.Query, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cmd.String(addrFlag.Name)})
	c, err := omclient.NewWithRedis(rdb)
	if err != nil {
		return nil, nil, err
	}
	q, err := omclient.NewQuery(plan, schema.New(cmd.String(indexFlag.Name)))
	if err != nil {
		return nil, nil, err
	}
	return c, q, nil
}

func dialect(cmd *cli.Command) int {
	return int(cmd.Int(dialectFlag.Name))
}
