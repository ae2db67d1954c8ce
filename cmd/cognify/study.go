package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/cobra"

	"github.com/chaosweasl/cognify/internal/observability"
	"github.com/chaosweasl/cognify/internal/profile"
	"github.com/chaosweasl/cognify/server/service/review"
	"github.com/chaosweasl/cognify/store"
	"github.com/chaosweasl/cognify/store/fallback"
)

func addStudy(topLevel *cobra.Command) {
	var deckFile string
	var order string
	var leechAction string
	var reviewAhead bool
	var noBury bool

	cmd := &cobra.Command{
		Use:   "study [itemID ...]",
		Short: "Run an interactive review session",
		Long: "Run an interactive review session over the given items.\n\n" +
			"Grades:\n" +
			"  0  again   forgot, start over\n" +
			"  1  hard    recalled with difficulty\n" +
			"  2  good    recalled\n" +
			"  3  easy    recalled instantly\n\n" +
			"Commands: u undo, s stats, q quit.",
		Example: `
cognify study --deck spanish.deck
cognify study item-1 item-2 item-3
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			setupLogger(p)

			params := review.DefaultParams()
			if err := params.NewItemOrder.UnmarshalText([]byte(order)); err != nil {
				return err
			}
			if err := params.LeechAction.UnmarshalText([]byte(leechAction)); err != nil {
				return err
			}
			params.ReviewAhead = reviewAhead
			params.BurySiblings = !noBury
			if err := params.Validate(); err != nil {
				return err
			}

			items, err := loadDeck(args, deckFile, p)
			if err != nil {
				return err
			}
			return runStudy(p, params, items)
		},
	}

	cmd.Flags().StringVar(&deckFile, "deck", "", `deck file, one "id[,group]" per line`)
	cmd.Flags().StringVar(&order, "order", string(review.NewItemOrderFIFO), `order new items are introduced, "fifo" or "random"`)
	cmd.Flags().StringVar(&leechAction, "leech-action", string(review.LeechSuspend), `what to do with leeches, "suspend" or "flagOnly"`)
	cmd.Flags().BoolVar(&reviewAhead, "review-ahead", false, "serve reviews before their due time, still under the daily cap")
	cmd.Flags().BoolVar(&noBury, "no-bury", false, "do not suppress siblings after grading")

	topLevel.AddCommand(cmd)
}

// loadDeck assembles the session's item list from command arguments and the
// deck file. In demo mode an empty deck is replaced with a throwaway one.
func loadDeck(args []string, deckFile string, p *profile.Profile) ([]review.SessionItem, error) {
	var items []review.SessionItem
	seen := map[string]bool{}
	add := func(id, group string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		items = append(items, review.SessionItem{ID: id, GroupKey: group})
	}

	for _, arg := range args {
		add(arg, "")
	}

	if deckFile != "" {
		f, err := os.Open(deckFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open deck file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			id, group, _ := strings.Cut(line, ",")
			add(strings.TrimSpace(id), strings.TrimSpace(group))
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read deck file: %w", err)
		}
	}

	if len(items) == 0 {
		if p.Mode == "demo" {
			return demoDeck(), nil
		}
		return nil, errors.New("no items to study: pass item ids or --deck")
	}
	return items, nil
}

// demoDeck mints a small throwaway collection so the engine can be tried
// without any setup: three sibling pairs plus four ungrouped items.
func demoDeck() []review.SessionItem {
	var items []review.SessionItem
	for i := 0; i < 3; i++ {
		group := shortuuid.New()
		items = append(items,
			review.SessionItem{ID: shortuuid.New(), GroupKey: group},
			review.SessionItem{ID: shortuuid.New(), GroupKey: group},
		)
	}
	for i := 0; i < 4; i++ {
		items = append(items, review.SessionItem{ID: shortuuid.New()})
	}
	return items
}

func runStudy(p *profile.Profile, params review.Params, items []review.SessionItem) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, p)
	if err != nil {
		slog.Warn("database unavailable, studying detached", "error", err)
		st = nil
	}
	if st != nil {
		defer st.Close()
	}
	fb := fallback.New(filepath.Join(p.Data, "fallback"))

	svc := review.NewService(st, fb, params)
	sessCtx := observability.NewSessionContext(slog.Default(), p.Owner, p.Scope)

	stats, err := svc.OpenSession(ctx, &review.OpenSessionRequest{
		OwnerID: p.Owner,
		Scope:   p.Scope,
		Items:   items,
	})
	if err != nil {
		return err
	}
	sessCtx.Info("study session opened", slog.Int("items", stats.TotalItems))
	printSessionHeader(stats)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		close(lines)
	}()

	loopErr := studyLoop(ctx, svc, lines, stats.Scope)

	// Close flushes pending progress; a failed flush already fell back to
	// the local counter store, so it is logged rather than returned.
	if err := svc.CloseSession(context.Background()); err != nil {
		observability.GlobalMetrics().RecordSaveFailure()
		sessCtx.Error("session close flush failed", err)
	}
	sessCtx.Info("study session finished",
		slog.Int64(observability.LogFieldDuration, sessCtx.DurationMs()))
	return loopErr
}

func studyLoop(ctx context.Context, svc review.Service, lines <-chan string, scope string) error {
	metrics := observability.GlobalMetrics()

	for {
		next, err := svc.NextItem(ctx)
		if err != nil {
			return err
		}
		if next.Item == nil {
			if next.Complete {
				return printFarewell(ctx, svc)
			}
			if !waitForLearning(ctx, next.NextLearningDue, lines) {
				return nil
			}
			continue
		}

		printItem(next.Item)
		shown := time.Now()

	prompt:
		for {
			fmt.Print("(0-3, u undo, s stats, q quit) > ")
			select {
			case <-ctx.Done():
				fmt.Println()
				return nil
			case line, ok := <-lines:
				if !ok {
					fmt.Println()
					return nil
				}
				input := strings.ToLower(strings.TrimSpace(line))
				switch input {
				case "":
					continue
				case "q", "quit":
					return nil
				case "s", "stats":
					stats, err := svc.SessionStats(ctx)
					if err != nil {
						return err
					}
					printSessionStats(stats)
					continue
				case "u", "undo":
					res, err := svc.UndoLast(ctx)
					if errors.Is(err, review.ErrNothingToUndo) {
						color.New(color.Faint).Println("nothing to undo")
						continue
					}
					if err != nil {
						return err
					}
					metrics.RecordUndo()
					color.New(color.FgYellow).Printf("took back %q on %s\n", res.Grade, res.ItemID)
					break prompt
				default:
					grade, ok := parseGradeInput(input)
					if !ok {
						color.New(color.Faint).Printf("unknown input %q\n", input)
						continue
					}
					res, err := svc.GradeItem(ctx, &review.GradeItemRequest{
						ItemID: next.Item.ItemID,
						Grade:  grade,
					})
					if err != nil {
						return err
					}
					metrics.RecordGrade(scope, grade == review.GradeAgain)
					metrics.RecordAnswerTime(scope, time.Since(shown))
					printGradeResult(res)
					break prompt
				}
			}
		}
	}
}

// parseGradeInput accepts the numeric grades the prompt advertises as well
// as the grade names.
func parseGradeInput(s string) (review.Grade, bool) {
	switch s {
	case "0", "1", "2", "3":
		return review.Grade(s[0] - '0'), true
	}
	if g, err := review.ParseGrade(s); err == nil {
		return g, true
	}
	return 0, false
}

// waitForLearning blocks until the next learning item comes due. It returns
// false when the user quits or the context ends.
func waitForLearning(ctx context.Context, due time.Time, lines <-chan string) bool {
	wait := time.Until(due)
	if wait <= 0 {
		return true
	}
	color.New(color.FgYellow).Printf("nothing due right now; next learning item at %s (%s)\n",
		due.Format("15:04"), humanDuration(wait))
	color.New(color.Faint).Println("waiting... (q quits)")

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case line, ok := <-lines:
			if !ok {
				return false
			}
			if strings.ToLower(strings.TrimSpace(line)) == "q" {
				return false
			}
		}
	}
}

func printSessionHeader(stats *review.SessionStats) {
	title := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	fmt.Println()
	title.Printf("Studying %q\n", stats.Scope)
	faint.Printf("%d items: %d new, %d learning, %d review",
		stats.TotalItems, stats.NewCount, stats.LearningCount, stats.ReviewCount)
	if stats.SuspendedCount > 0 {
		faint.Printf(", %d suspended", stats.SuspendedCount)
	}
	fmt.Println()
	faint.Printf("today so far: %d new, %d reviews\n", stats.NewGraded, stats.ReviewsDone)
}

func printItem(item *store.ReviewState) {
	fmt.Println()
	color.New(color.Bold).Print(item.ItemID)
	color.New(color.Faint).Printf("  [%s]\n", phaseLabel(item))
}

func phaseLabel(item *store.ReviewState) string {
	switch item.Phase {
	case store.PhaseNew:
		return "new"
	case store.PhaseLearning:
		return fmt.Sprintf("learning step %d", item.StepIndex)
	case store.PhaseRelearning:
		return fmt.Sprintf("relearning step %d", item.StepIndex)
	case store.PhaseReview:
		return fmt.Sprintf("review %dd", item.IntervalDays)
	}
	return strings.ToLower(string(item.Phase))
}

func printGradeResult(res *review.GradeResult) {
	state := res.State

	var c *color.Color
	switch {
	case state.Phase == store.PhaseReview:
		c = color.New(color.FgGreen)
	case state.Phase == store.PhaseRelearning:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgYellow)
	}
	c.Printf("→ %s, due %s\n", phaseLabel(state), humanDue(state.Due))

	if res.BecameLeech {
		warn := color.New(color.FgRed, color.Bold)
		if state.IsSuspended {
			warn.Println("item marked as leech and suspended")
		} else {
			warn.Println("item marked as leech")
		}
	}
	if n := len(res.SuppressedSiblings); n > 0 {
		color.New(color.Faint).Printf("buried %d sibling(s) for today\n", n)
	}
}

func printSessionStats(stats *review.SessionStats) {
	faint := color.New(color.Faint)
	fmt.Println()
	color.New(color.Bold).Println("Session")
	fmt.Printf("  today: %d new, %d reviews\n", stats.NewGraded, stats.ReviewsDone)
	fmt.Printf("  ahead: %d learning due, %d reviews due, %d new remaining\n",
		stats.LearningDueNow, stats.ReviewsRemaining, stats.NewRemaining)
	if stats.LearningWaiting > 0 {
		faint.Printf("  %d learning item(s) waiting, next at %s\n",
			stats.LearningWaiting, stats.NextLearningDue.Format("15:04"))
	}
	if stats.SuppressedCount > 0 {
		faint.Printf("  %d sibling(s) buried\n", stats.SuppressedCount)
	}
	faint.Printf("  undo depth %d\n", stats.UndoDepth)
}

func printFarewell(ctx context.Context, svc review.Service) error {
	stats, err := svc.SessionStats(ctx)
	if err != nil {
		return err
	}
	fmt.Println()
	color.New(color.FgGreen, color.Bold).Println("Session complete.")
	fmt.Printf("Graded %d new and %d review item(s) today.\n", stats.NewGraded, stats.ReviewsDone)
	return nil
}

func humanDue(due time.Time) string {
	d := time.Until(due)
	if d <= 0 {
		return "now"
	}
	return "in " + humanDuration(d)
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
