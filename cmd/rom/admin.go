package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	omclient "github.com/berickus/redis-om-spring/client"
	"github.com/berickus/redis-om-spring/searchquery"
)

func newTagValsCommand() *cli.Command {
	return &cli.Command{
		Name:      "tagvals",
		Usage:     "List the distinct values of a tag field",
		ArgsUsage: "<field>",
		Action:    tagValsAction,
	}
}

func tagValsAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: tag field name")
	}

	c, q, err := queryContext(cmd, searchquery.PlanForTagValues(cmd.Args().First()))
	if err != nil {
		return err
	}
	vals, err := omclient.TagValues(ctx, c, q)
	if err != nil {
		return err
	}
	for _, v := range vals {
		fmt.Fprintln(os.Stdout, v)
	}
	return nil
}

func newDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete every record matching a query",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{limitFlag},
		Action:    deleteAction,
	}
}

func deleteAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: query")
	}

	opts := []searchquery.TemplateOption{
		searchquery.AsDelete(),
		searchquery.UseDialect(dialect(cmd)),
	}
	if cmd.IsSet(limitFlag.Name) {
		opts = append(opts, searchquery.StaticPaging(0, int(cmd.Int(limitFlag.Name))))
	}
	plan := searchquery.PlanFromTemplate(cmd.Args().First(), opts...)

	c, q, err := queryContext(cmd, plan)
	if err != nil {
		return err
	}
	n, err := omclient.DeleteCount(ctx, c, q, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted %d records\n", n)
	return nil
}

var (
	fuzzyFlag = &cli.BoolFlag{
		Name:  "fuzzy",
		Usage: "Allow fuzzy prefix matching",
	}
	maxFlag = &cli.IntFlag{
		Name:  "max",
		Usage: "Maximum number of suggestions",
	}
)

func newSuggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Fetch autocomplete suggestions from a suggestion dictionary",
		ArgsUsage: "<key> <prefix>",
		Flags:     []cli.Flag{fuzzyFlag, maxFlag},
		Action:    suggestAction,
	}
}

func suggestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("expected 2 arguments: suggestion key and prefix")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cmd.String(addrFlag.Name)})
	c, err := omclient.NewWithRedis(rdb)
	if err != nil {
		return err
	}
	suggestions, err := c.Autocomplete(ctx, cmd.Args().Get(0), cmd.Args().Get(1),
		cmd.Bool(fuzzyFlag.Name), int(cmd.Int(maxFlag.Name)))
	if err != nil {
		return err
	}
	for _, s := range suggestions {
		fmt.Fprintln(os.Stdout, s)
	}
	return nil
}
