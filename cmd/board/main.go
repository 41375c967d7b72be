package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"taskboard/internal/api"
	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/connectivity"
	"taskboard/internal/models"
	"taskboard/internal/notify"
	"taskboard/internal/offline"
	"taskboard/internal/queue"
	"taskboard/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Get()

	client := api.NewClient(cfg.APIBaseURL)
	if err := client.Login(ctx, cfg.BoardUser, cfg.BoardPassword); err != nil {
		logger.Error(ctx, "Login failed", "error", err)
		os.Exit(1)
	}

	var store queue.Store
	switch cfg.QueueBackend {
	case "redis":
		store = queue.NewRedisStore(ctx, cfg.RedisURL, cfg.QueueKey)
	default:
		store = queue.NewFileStore(cfg.QueuePath)
	}

	dispatcher := notify.NewDispatcher()
	toasts := newToastPrinter()
	defer dispatcher.AddListener(toasts.show)()

	monitor := connectivity.NewMonitor(&connectivity.HTTPProber{URL: cfg.APIBaseURL + "/health"}, cfg.ProbeInterval)
	coordinator := offline.NewCoordinator(store, client, dispatcher, cfg.RetryLimit)
	monitor.OnOnline(func() { coordinator.Drain(ctx) })
	go monitor.Run(ctx)

	tasks := board.NewStore(offline.NewClient(client, coordinator, monitor), dispatcher, cfg.UndoWindow)
	if err := tasks.Load(ctx); err != nil {
		os.Exit(1)
	}

	fmt.Println("taskboard — commands: list, add <title> [priority], move <id> <status>, edit <id> <field>=<value>, rm <id>, undo, queue, sync, offline, online, reload, quit")
	printBoard(tasks, coordinator, monitor)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "list":
			printBoard(tasks, coordinator, monitor)
		case "add":
			if len(fields) < 2 {
				fmt.Println("usage: add <title> [low|medium|high]")
				continue
			}
			data := models.CreateTaskData{Title: fields[1], Priority: models.PriorityMedium}
			if len(fields) > 2 {
				data.Priority = models.TaskPriority(fields[2])
			}
			if !data.Priority.Valid() {
				fmt.Println("unknown priority:", data.Priority)
				continue
			}
			_, _ = tasks.Create(ctx, data)
		case "move":
			if len(fields) != 3 {
				fmt.Println("usage: move <id> <todo|in-progress|done>")
				continue
			}
			to := models.TaskStatus(fields[2])
			if !to.Valid() {
				fmt.Println("unknown status:", to)
				continue
			}
			if err := tasks.Move(ctx, fields[1], to); err != nil {
				fmt.Println("move failed:", err)
			}
		case "edit":
			if len(fields) < 3 {
				fmt.Println("usage: edit <id> <title|description|priority>=<value>")
				continue
			}
			updates, err := parseUpdates(fields[2:])
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := tasks.Update(ctx, fields[1], updates); err != nil {
				fmt.Println("edit failed:", err)
			}
		case "rm":
			if len(fields) != 2 {
				fmt.Println("usage: rm <id>")
				continue
			}
			if err := tasks.Delete(ctx, fields[1]); err != nil {
				fmt.Println("delete failed:", err)
			}
		case "undo":
			toasts.invokeLast()
		case "queue":
			for _, a := range coordinator.Snapshot(ctx) {
				fmt.Printf("  %s %s retries=%d task=%s\n", a.ID, a.Kind, a.RetryCount, a.TaskID())
			}
			fmt.Printf("%d queued\n", coordinator.Len(ctx))
		case "sync":
			coordinator.Drain(ctx)
		case "offline":
			monitor.SetOnline(false)
		case "online":
			monitor.SetOnline(true)
		case "reload":
			_ = tasks.Load(ctx)
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func parseUpdates(args []string) (models.UpdateTaskData, error) {
	var updates models.UpdateTaskData
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return updates, fmt.Errorf("expected <field>=<value>, got %q", arg)
		}
		switch key {
		case "title":
			updates.Title = &value
		case "description":
			updates.Description = &value
		case "priority":
			p := models.TaskPriority(value)
			if !p.Valid() {
				return updates, fmt.Errorf("unknown priority %q", value)
			}
			updates.Priority = &p
		default:
			return updates, fmt.Errorf("unknown field %q", key)
		}
	}
	return updates, nil
}

func printBoard(tasks *board.Store, coordinator *offline.Coordinator, monitor *connectivity.Monitor) {
	state := "online"
	if !monitor.Online() {
		state = "offline"
	}
	fmt.Printf("-- board (%s, %d queued) --\n", state, coordinator.Len(context.Background()))
	for _, status := range []models.TaskStatus{models.StatusTodo, models.StatusInProgress, models.StatusDone} {
		fmt.Printf("%s:\n", status)
		for _, t := range tasks.ByStatus(status) {
			badge := ""
			if tasks.Queued(t.ID) {
				badge = " [queued]"
			}
			fmt.Printf("  %-8s %s (%s)%s\n", shortID(t.ID), t.Title, t.Priority, badge)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// toastPrinter renders notifications to stdout and keeps the most recent
// notification action (e.g. Undo) invocable until its window expires.
type toastPrinter struct {
	mu       sync.Mutex
	last     *notify.Action
	deadline time.Time
}

func newToastPrinter() *toastPrinter {
	return &toastPrinter{}
}

func (p *toastPrinter) show(n notify.Notification) {
	if n.Action != nil {
		p.mu.Lock()
		p.last = n.Action
		p.deadline = time.Now().Add(n.Duration)
		p.mu.Unlock()
		fmt.Printf("[%s] %s (%s available for %s)\n", n.Level, n.Message, strings.ToLower(n.Action.Label), n.Duration)
		return
	}
	fmt.Printf("[%s] %s\n", n.Level, n.Message)
}

func (p *toastPrinter) invokeLast() {
	p.mu.Lock()
	action := p.last
	expired := time.Now().After(p.deadline)
	p.last = nil
	p.mu.Unlock()
	if action == nil || expired {
		fmt.Println("nothing to undo")
		return
	}
	action.Fn()
}
