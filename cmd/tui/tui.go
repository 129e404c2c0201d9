// Interactive query explorer: type a search query, inspect the matching
// records in a table. The index name comes from the ROM_INDEX environment
// variable and can be changed at runtime in the index field.
package main

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rivo/tview"

	omclient "github.com/berickus/redis-om-spring/client"
	"github.com/berickus/redis-om-spring/schema"
	"github.com/berickus/redis-om-spring/searchquery"
)

const pageSize = 50

type TUI struct {
	app        *tview.Application
	indexField *tview.InputField
	queryField *tview.InputField
	table      *tview.Table
	status     *tview.TextView

	client *omclient.Client

	baseCtx    context.Context
	baseCancel context.CancelFunc
	stopOnce   sync.Once
}

func configureStyles() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.BorderColor = tcell.ColorWhite
	tview.Styles.TitleColor = tcell.ColorWhite
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorYellow
}

// NewTUI creates the explorer. The provided context controls the lifetime of
// background queries; pass nil to use context.Background().
func NewTUI(ctx context.Context, addr, index string) *TUI {
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx, baseCancel := context.WithCancel(ctx)

	configureStyles()

	tui := &TUI{
		app:        tview.NewApplication(),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	client, err := omclient.NewWithRedis(rdb)
	if err != nil {
		panic(err)
	}
	tui.client = client

	tui.indexField = tview.NewInputField().
		SetLabel("Index: ").
		SetText(index).
		SetFieldWidth(30)
	tui.queryField = tview.NewInputField().
		SetLabel("Query: ").
		SetText("*")
	tui.queryField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			tui.runQuery()
		}
	})

	tui.table = tview.NewTable().
		SetBorders(false).
		SetFixed(1, 1).
		SetSelectable(true, false)
	tui.table.SetBorder(true).SetTitle(" Results ")

	tui.status = tview.NewTextView().SetDynamicColors(true)
	tui.status.SetText("Enter a query and press Enter. Tab switches focus, Ctrl-C quits.")

	form := tview.NewFlex().
		AddItem(tui.indexField, 40, 0, false).
		AddItem(tui.queryField, 0, 1, true)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 1, 0, true).
		AddItem(tui.table, 0, 1, false).
		AddItem(tui.status, 1, 0, false)

	tui.app.SetRoot(layout, true)
	tui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			tui.cycleFocus()
			return nil
		}
		return event
	})

	return tui
}

func (t *TUI) Run() {
	defer t.baseCancel()
	if err := t.app.Run(); err != nil {
		panic(err)
	}
}

func (t *TUI) Stop() {
	t.stopOnce.Do(func() {
		t.baseCancel()
		t.app.Stop()
	})
}

func (t *TUI) cycleFocus() {
	switch t.app.GetFocus() {
	case t.indexField:
		t.app.SetFocus(t.queryField)
	case t.queryField:
		t.app.SetFocus(t.table)
	default:
		t.app.SetFocus(t.indexField)
	}
}

func (t *TUI) runQuery() {
	index := t.indexField.GetText()
	queryText := t.queryField.GetText()
	if index == "" {
		t.status.SetText("[red]An index name is required")
		return
	}

	plan := searchquery.PlanFromTemplate(queryText,
		searchquery.StaticPaging(0, pageSize))
	q, err := omclient.NewQuery(plan, schema.New(index))
	if err != nil {
		t.status.SetText("[red]" + err.Error())
		return
	}

	t.status.SetText("Searching...")
	go func() {
		res, err := omclient.RawSearch(t.baseCtx, t.client, q, nil)
		t.app.QueueUpdateDraw(func() {
			if err != nil {
				t.status.SetText("[red]" + err.Error())
				return
			}
			t.renderResults(res)
			t.status.SetText(fmt.Sprintf("%d of %d results", len(res.Docs), res.Total))
		})
	}()
}

// renderResults rebuilds the table: one row per record, columns are the
// union of all field names plus the record key.
func (t *TUI) renderResults(res *omclient.SearchResult) {
	t.table.Clear()

	columns := resultColumns(res.Docs)
	t.table.SetCell(0, 0, headerCell("key"))
	for i, col := range columns {
		t.table.SetCell(0, i+1, headerCell(col))
	}

	for row, doc := range res.Docs {
		t.table.SetCell(row+1, 0, tview.NewTableCell(doc.ID))
		for i, col := range columns {
			t.table.SetCell(row+1, i+1, tview.NewTableCell(doc.Fields[col]))
		}
	}
	t.table.ScrollToBeginning()
}

func headerCell(text string) *tview.TableCell {
	return tview.NewTableCell(text).
		SetTextColor(tcell.ColorYellow).
		SetSelectable(false)
}

func resultColumns(docs []omclient.Document) []string {
	seen := map[string]bool{}
	var columns []string
	for _, doc := range docs {
		for name := range doc.Fields {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	sort.Strings(columns)
	return columns
}
