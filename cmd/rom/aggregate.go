package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	omclient "github.com/berickus/redis-om-spring/client"
	"github.com/berickus/redis-om-spring/searchquery"
)

var (
	loadFlag = &cli.StringSliceFlag{
		Name:  "load",
		Usage: "Fields to load into the pipeline (repeatable)",
	}
	groupByFlag = &cli.StringSliceFlag{
		Name:    "groupby",
		Aliases: []string{"g"},
		Usage:   "Fields to group by (repeatable)",
	}
	reduceFlag = &cli.StringSliceFlag{
		Name:    "reduce",
		Aliases: []string{"R"},
		Usage:   "Reducer, e.g. COUNT=total or AVG:salary=avgSalary (repeatable)",
	}
	filterFlag = &cli.StringSliceFlag{
		Name:  "filter",
		Usage: "Pipeline filter predicate (repeatable)",
	}
	applyFlag = &cli.StringSliceFlag{
		Name:  "apply",
		Usage: "Computed field, e.g. '@salary*12=yearly' (repeatable)",
	}
	verbatimFlag = &cli.BoolFlag{
		Name:  "verbatim",
		Usage: "Disable stemming on query terms",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Aggregation timeout (e.g. 500ms, 2s)",
	}
)

func newAggregateCommand() *cli.Command {
	return &cli.Command{
		Name:      "aggregate",
		Usage:     "Run an aggregation pipeline",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			loadFlag, groupByFlag, reduceFlag, filterFlag, applyFlag,
			sortByFlag, descFlag, limitFlag, offsetFlag, verbatimFlag, timeoutFlag,
		},
		Action: aggregateAction,
	}
}

func aggregateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("expected a query argument")
	}

	spec := searchquery.Aggregation{
		Query:    cmd.Args().First(),
		Filter:   cmd.StringSlice(filterFlag.Name),
		Verbatim: cmd.Bool(verbatimFlag.Name),
		Timeout:  cmd.Duration(timeoutFlag.Name),
		Offset:   int(cmd.Int(offsetFlag.Name)),
		Limit:    int(cmd.Int(limitFlag.Name)),
	}
	for _, field := range cmd.StringSlice(loadFlag.Name) {
		spec.Load = append(spec.Load, searchquery.Load{Property: field})
	}
	for _, expr := range cmd.StringSlice(applyFlag.Name) {
		expression, alias, ok := strings.Cut(expr, "=")
		if !ok {
			return fmt.Errorf("apply %q needs an alias: <expression>=<alias>", expr)
		}
		spec.Apply = append(spec.Apply, searchquery.Apply{Expression: expression, Alias: alias})
	}
	if groups := cmd.StringSlice(groupByFlag.Name); len(groups) > 0 || cmd.IsSet(reduceFlag.Name) {
		group := searchquery.Group{Properties: groups}
		for _, r := range cmd.StringSlice(reduceFlag.Name) {
			reducer, err := parseReducer(r)
			if err != nil {
				return err
			}
			group.Reduce = append(group.Reduce, reducer)
		}
		spec.GroupBy = []searchquery.Group{group}
	}
	if field := cmd.String(sortByFlag.Name); field != "" {
		spec.SortBy = []searchquery.SortedField{{Field: field, Descending: cmd.Bool(descFlag.Name)}}
	}

	plan, err := searchquery.PlanFromAggregation(spec, searchquery.WithDialect(dialect(cmd)))
	if err != nil {
		return err
	}
	c, q, err := queryContext(cmd, plan)
	if err != nil {
		return err
	}

	rows, err := omclient.AggregateRows(ctx, c, q, nil)
	if err != nil {
		return err
	}
	return printRows(rows)
}

var reducerNames = map[string]searchquery.ReducerFunc{
	"COUNT":             searchquery.Count,
	"COUNT_DISTINCT":    searchquery.CountDistinct,
	"COUNT_DISTINCTISH": searchquery.CountDistinctish,
	"SUM":               searchquery.Sum,
	"MIN":               searchquery.Min,
	"MAX":               searchquery.Max,
	"AVG":               searchquery.Avg,
	"STDDEV":            searchquery.StdDev,
	"QUANTILE":          searchquery.Quantile,
	"TOLIST":            searchquery.ToList,
	"FIRST_VALUE":       searchquery.FirstValue,
	"RANDOM_SAMPLE":     searchquery.RandomSample,
}

// parseReducer reads FUNC[:arg...][=alias], e.g. "COUNT=total",
// "AVG:salary=avgSalary" or "QUANTILE:salary:0.5=median".
func parseReducer(s string) (searchquery.Reducer, error) {
	spec, alias, _ := strings.Cut(s, "=")
	parts := strings.Split(spec, ":")

	fn, ok := reducerNames[strings.ToUpper(parts[0])]
	if !ok {
		return searchquery.Reducer{}, fmt.Errorf("unknown reducer %q", parts[0])
	}
	if alias == "" {
		alias = strings.ToLower(fn.String())
	}
	return searchquery.Reducer{Func: fn, Args: parts[1:], Alias: alias}, nil
}
