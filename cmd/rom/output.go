package main

import (
	"encoding/json"
	"fmt"
	"os"

	omclient "github.com/berickus/redis-om-spring/client"
)

type recordOutput struct {
	Key    string            `json:"key,omitempty"`
	Fields map[string]string `json:"fields"`
}

func printDocuments(res *omclient.SearchResult) error {
	entries := make([][]byte, 0, len(res.Docs))
	for _, doc := range res.Docs {
		data, err := json.MarshalIndent(recordOutput{Key: doc.ID, Fields: doc.Fields}, "", "  ")
		if err != nil {
			return err
		}
		entries = append(entries, data)
	}
	if err := printJSONArray(entries); err != nil {
		return err
	}
	_, err := fmt.Fprintf(os.Stderr, "%d of %d results\n", len(res.Docs), res.Total)
	return err
}

func printRows(rows []map[string]string) error {
	entries := make([][]byte, 0, len(rows))
	for _, row := range rows {
		data, err := json.MarshalIndent(row, "", "  ")
		if err != nil {
			return err
		}
		entries = append(entries, data)
	}
	return printJSONArray(entries)
}

func printJSONArray(entries [][]byte) error {
	if _, err := fmt.Fprintln(os.Stdout, "["); err != nil {
		return err
	}
	for i, entry := range entries {
		if i > 0 {
			if _, err := fmt.Fprintln(os.Stdout, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(os.Stdout, string(entry)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(os.Stdout, "]")
	return err
}
