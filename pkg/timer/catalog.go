package timer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
)

// DefaultCatalogTTL is how long tasks and projects are cached.
const DefaultCatalogTTL = time.Hour

// CatalogAPI lists tasks and projects.
type CatalogAPI interface {
	Tasks(ctx context.Context) ([]hakuna.Task, error)
	Projects(ctx context.Context) ([]hakuna.Project, error)
}

// Catalog caches tasks and projects for argument resolution. It is
// reference data, not timer state.
type Catalog struct {
	mu sync.Mutex

	api CatalogAPI
	ttl time.Duration

	tasks      []hakuna.Task
	tasksAt    time.Time
	projects   []hakuna.Project
	projectsAt time.Time

	// For testing
	timeNow func() time.Time
}

// NewCatalog creates a catalog. A ttl <= 0 selects DefaultCatalogTTL.
func NewCatalog(api CatalogAPI, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &Catalog{api: api, ttl: ttl, timeNow: time.Now}
}

// Tasks returns the cached task list, loading it when missing or expired.
func (c *Catalog) Tasks(ctx context.Context) ([]hakuna.Task, error) {
	tasks, _, err := c.loadTasks(ctx, false)
	return tasks, err
}

// Projects returns the cached project list, loading it when missing or expired.
func (c *Catalog) Projects(ctx context.Context) ([]hakuna.Project, error) {
	projects, _, err := c.loadProjects(ctx, false)
	return projects, err
}

// loadTasks returns the task list and whether it was fetched just now.
func (c *Catalog) loadTasks(ctx context.Context, force bool) ([]hakuna.Task, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.tasks != nil && c.timeNow().Sub(c.tasksAt) < c.ttl {
		return c.tasks, false, nil
	}
	tasks, err := c.api.Tasks(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load tasks: %w", err)
	}
	if tasks == nil {
		tasks = []hakuna.Task{}
	}
	c.tasks, c.tasksAt = tasks, c.timeNow()
	return tasks, true, nil
}

// loadProjects returns the project list and whether it was fetched just now.
func (c *Catalog) loadProjects(ctx context.Context, force bool) ([]hakuna.Project, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.projects != nil && c.timeNow().Sub(c.projectsAt) < c.ttl {
		return c.projects, false, nil
	}
	projects, err := c.api.Projects(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load projects: %w", err)
	}
	if projects == nil {
		projects = []hakuna.Project{}
	}
	c.projects, c.projectsAt = projects, c.timeNow()
	return projects, true, nil
}

// Invalidate drops the cached lists.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks, c.projects = nil, nil
}

// DefaultTask picks the task used when none is given: the first task
// flagged default and not archived, else the first non-archived task.
func DefaultTask(tasks []hakuna.Task) (hakuna.Task, bool) {
	for _, t := range tasks {
		if t.Default && !t.Archived {
			return t, true
		}
	}
	for _, t := range tasks {
		if !t.Archived {
			return t, true
		}
	}
	return hakuna.Task{}, false
}

// Resolve turns start options into a request body.
func (c *Catalog) Resolve(ctx context.Context, opts StartOptions) (hakuna.StartTimerRequest, error) {
	var req hakuna.StartTimerRequest

	taskID, err := c.resolveTask(ctx, strings.TrimSpace(opts.Task))
	if err != nil {
		return req, err
	}
	req.TaskID = taskID

	projectID, err := c.resolveProject(ctx, strings.TrimSpace(opts.Project))
	if err != nil {
		return req, err
	}
	req.ProjectID = projectID

	if opts.Note != "" {
		note := opts.Note
		req.Note = &note
	}
	return req, nil
}

func (c *Catalog) resolveTask(ctx context.Context, name string) (*int64, error) {
	if id, ok := parseID(name); ok {
		return &id, nil
	}

	if name == "" {
		tasks, err := c.Tasks(ctx)
		if err != nil {
			// Without a catalog the server picks its own default, unless
			// the token itself is the problem.
			if errors.Is(err, hakuna.ErrAuth) {
				return nil, err
			}
			return nil, nil
		}
		if t, ok := DefaultTask(tasks); ok {
			return &t.ID, nil
		}
		return nil, nil
	}

	tasks, fresh, err := c.loadTasks(ctx, false)
	for {
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			if !t.Archived && strings.EqualFold(t.Name, name) {
				return &t.ID, nil
			}
		}
		if fresh {
			break
		}
		// The cached list may predate the task; reload once.
		tasks, fresh, err = c.loadTasks(ctx, true)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
}

func (c *Catalog) resolveProject(ctx context.Context, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	if id, ok := parseID(name); ok {
		return &id, nil
	}

	projects, fresh, err := c.loadProjects(ctx, false)
	for {
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			if !p.Archived && strings.EqualFold(p.Name, name) {
				return &p.ID, nil
			}
		}
		if fresh {
			break
		}
		projects, fresh, err = c.loadProjects(ctx, true)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProject, name)
}

func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
