/*
main.go - Offline roster planning from a roster file

PURPOSE:
  Generates one week from a roster document without a server: the document
  is imported into an in-memory store, the week is generated, and the board
  and report are printed. Optionally writes the Excel workbook.

COMMAND-LINE FLAGS:
  -roster       Roster JSON file (required)
  -week         Week to plan (default: the document's week, else this week)
  -mode         balance | seed (default: balance)
  -xlsx         Write the workbook to this path
  -group-order  Comma-separated report group order
  -shared-pool  Keep equipment claims across the week's shifts

EXAMPLES:
  rosterctl -roster=crew.json -week=2026-03-02 -xlsx=week.xlsx
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/planning"
	"github.com/warp/roster-engine/render"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/roster/store"
)

const tenant roster.TenantID = "local"

func main() {
	rosterPath := flag.String("roster", "", "Roster JSON file")
	weekFlag := flag.String("week", "", "Week to plan (YYYY-MM-DD)")
	modeFlag := flag.String("mode", "balance", "Generation mode: balance | seed")
	xlsxPath := flag.String("xlsx", "", "Write the workbook to this path")
	groupOrder := flag.String("group-order", "", "Comma-separated report group order")
	sharedPool := flag.Bool("shared-pool", false, "Keep equipment claims across shifts")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *rosterPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	opts := planning.Options{
		Logger:    logger,
		Equipment: roster.MatchOptions{SharedPool: *sharedPool},
	}
	if *groupOrder != "" {
		opts.Report.GroupOrder = strings.Split(*groupOrder, ",")
	}
	if err := run(context.Background(), os.Stdout, *rosterPath, *weekFlag, *modeFlag, *xlsxPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "rosterctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer, path, weekFlag, modeFlag, xlsxPath string, opts planning.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := factory.Parse(data)
	if err != nil {
		return err
	}
	mode, err := planning.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	week := roster.WeekOf(time.Now())
	switch {
	case weekFlag != "":
		if week, err = roster.ParseWeek(weekFlag); err != nil {
			return err
		}
	case doc.Week != "":
		week = doc.Week
	}
	// History always belongs to the week before the one being planned.
	doc.Week = week

	st := store.NewMemory()
	if err := factory.Import(ctx, st, tenant, doc); err != nil {
		return err
	}
	planner := planning.New(st, opts)
	out, err := planner.Generate(ctx, tenant, week, mode)
	if err != nil {
		return err
	}
	rep, err := planner.Report(ctx, tenant, week)
	if err != nil {
		return err
	}
	catalog := doc.Catalog()

	fmt.Fprintln(stdout, render.Plan(out.Plan, catalog))
	fmt.Fprintln(stdout, render.Report(rep))
	for _, u := range out.Unscheduled {
		fmt.Fprintf(stdout, "unscheduled: %s (%s)\n", u.WorkerID, u.Reason)
	}
	for _, s := range out.Shortages {
		fmt.Fprintf(stdout, "shortage: %s needs %s for %s\n", s.WorkerID, s.Requirement.Type, s.TaskID)
	}

	if xlsxPath == "" {
		return nil
	}
	f, err := os.Create(xlsxPath)
	if err != nil {
		return err
	}
	if err := render.WriteXLSX(f, out.Plan, rep, catalog); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
