package coordinator

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
)

// TeamMember is one colleague's presence today.
type TeamMember struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	Status              string   `json:"status,omitempty"`
	Groups              []string `json:"groups,omitempty"`
	TimerRunning        bool     `json:"timer_running"`
	AbsentFirstHalfDay  bool     `json:"absent_first_half_day"`
	AbsentSecondHalfDay bool     `json:"absent_second_half_day"`

	// Managed is set for users returned by GET /users.
	Managed bool `json:"managed"`
}

// Team loads today's presence merged with the managed users, sorted by
// name. The user list needs supervisor rights; any error fetching it is
// ignored. Team is not part of the snapshot and costs two requests.
func (c *Coordinator) Team(ctx context.Context) ([]TeamMember, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.authErr != nil {
		err := c.authErr
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	proxy := clientProxy{c}
	var (
		presence []hakuna.Presence
		users    []hakuna.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		presence, err = proxy.client().Presence(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if users, err = proxy.client().Users(gctx); err != nil {
			c.logger.Debug("user list unavailable", "error", err, "outcome", hakuna.Outcome(err))
			users = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeTeam(presence, users), nil
}

func mergeTeam(presence []hakuna.Presence, users []hakuna.User) []TeamMember {
	byID := make(map[int64]*TeamMember, len(presence)+len(users))
	members := make([]*TeamMember, 0, len(presence)+len(users))
	member := func(id int64) *TeamMember {
		m, ok := byID[id]
		if !ok {
			m = &TeamMember{ID: id}
			byID[id] = m
			members = append(members, m)
		}
		return m
	}

	for _, p := range presence {
		m := member(p.User.ID)
		m.Name = p.User.Name
		m.Status = p.User.Status
		m.Groups = p.User.Groups
		m.TimerRunning = p.HasTimerRunning
		m.AbsentFirstHalfDay = p.AbsentFirstHalfDay
		m.AbsentSecondHalfDay = p.AbsentSecondHalfDay
	}
	for _, u := range users {
		m := member(u.ID)
		m.Managed = true
		if m.Name == "" {
			m.Name = u.Name
		}
		if m.Status == "" {
			m.Status = u.Status
		}
		if len(m.Groups) == 0 {
			m.Groups = u.Groups
		}
	}

	out := make([]TeamMember, len(members))
	for i, m := range members {
		out[i] = *m
	}
	slices.SortStableFunc(out, func(a, b TeamMember) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}
