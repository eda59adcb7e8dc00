// Package gui is the desktop front end: paste a deck list, price it and
// watch the results come in.
package gui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/version"
)

// Pricer parses and prices deck lists.
type Pricer interface {
	Parse(text string) (decklist.Sections, error)
	CountItems(sections decklist.Sections) int
	Price(ctx context.Context, text string, onItem func(pricing.LineItem)) (*budget.Result, error)
}

// App represents the GUI application.
type App struct {
	app      fyne.App
	window   fyne.Window
	pricer   Pricer
	currency string

	input    *widget.Entry
	button   *widget.Button
	status   *widget.Label
	progress *widget.ProgressBar
	results  *fyne.Container
	summary  *widget.Card

	mu     sync.Mutex
	cancel context.CancelFunc

	// onDone is called after every analysis; tests use it to wait.
	onDone func()
}

// NewApp creates a new GUI application.
func NewApp(pricer Pricer, currency string) *App {
	return newApp(app.New(), pricer, currency)
}

func newApp(fa fyne.App, pricer Pricer, currency string) *App {
	return &App{
		app:      fa,
		pricer:   pricer,
		currency: currency,
	}
}

// Run starts the GUI application and blocks until the window is closed.
func (a *App) Run() {
	a.window = a.app.NewWindow("Deck Budget " + version.GetVersion())
	a.window.Resize(fyne.NewSize(800, 900))
	a.window.SetContent(a.buildContent())
	a.window.SetOnClosed(a.stop)
	a.window.ShowAndRun()
}

func (a *App) buildContent() fyne.CanvasObject {
	a.input = widget.NewMultiLineEntry()
	a.input.SetPlaceHolder("Paste the deck list here\n\nCommander\n1 Atraxa, Praetors' Voice\n\nDeck\n1 Sol Ring\n...")
	a.input.SetMinRowsVisible(10)

	a.button = widget.NewButtonWithIcon("Analyze deck", theme.MediaPlayIcon(), func() {
		a.analyze(a.input.Text)
	})
	a.button.Importance = widget.HighImportance

	a.status = widget.NewLabel("Ready")
	a.progress = widget.NewProgressBar()
	a.progress.Hide()

	a.results = container.NewVBox()
	a.summary = widget.NewCard("Cost summary", "", widget.NewLabel(""))
	a.summary.Hide()

	header := container.NewVBox(
		widget.NewLabelWithStyle("Deck Budget", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Commander deck pricing", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
		a.input,
		a.button,
		a.status,
		a.progress,
	)

	return container.NewBorder(header, a.summary, nil, nil, container.NewVScroll(a.results))
}

// analyze prices text in the background, appending each result as it
// arrives. A new analysis cancels the running one.
func (a *App) analyze(text string) {
	sections, err := a.pricer.Parse(text)
	if err != nil {
		a.status.SetText(statusText(err))
		a.done()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = cancel
	a.mu.Unlock()

	a.results.RemoveAll()
	a.summary.Hide()
	a.button.Disable()
	a.status.SetText("Looking up prices on Scryfall...")
	a.progress.Min = 0
	a.progress.Max = float64(a.pricer.CountItems(sections))
	a.progress.SetValue(0)
	a.progress.Show()

	go func() {
		defer cancel()
		priced := 0

		result, err := a.pricer.Price(ctx, text, func(item pricing.LineItem) {
			priced++
			count := float64(priced)
			fyne.Do(func() {
				a.results.Add(itemWidget(item, a.currency))
				a.progress.SetValue(count)
			})
		})

		fyne.Do(func() {
			a.progress.Hide()
			a.button.Enable()
			if err != nil {
				a.status.SetText(statusText(err))
			} else {
				a.progress.SetValue(a.progress.Max)
				a.status.SetText(fmt.Sprintf("Analysis complete: %d line(s), %d not found",
					len(result.Report.Items), len(result.Report.NotFound())))
				a.summary.SetContent(widget.NewLabel(SummaryText(result.Report.Summary, a.currency)))
				a.summary.Show()
			}
			a.done()
		})
	}()
}

func (a *App) done() {
	if a.onDone != nil {
		a.onDone()
	}
}

func (a *App) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

func statusText(err error) string {
	switch {
	case errors.Is(err, decklist.ErrEmptyDecklist):
		return "Error: paste a deck list first"
	case errors.Is(err, context.Canceled):
		return "Analysis cancelled"
	default:
		return "Error: " + err.Error()
	}
}
