package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"tournament-results/internal/api"
	"tournament-results/internal/constants"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownSlot = errors.New("unknown time slot")

type Slot string

const (
	SlotAll    Slot = "all"
	SlotFirst  Slot = "first"
	SlotSecond Slot = "second"
	SlotThird  Slot = "third"
)

func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case "":
		return SlotAll, nil
	case SlotAll, SlotFirst, SlotSecond, SlotThird:
		return Slot(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// contains reports whether a start time, in minutes after local midnight,
// falls in the slot. The third slot runs past midnight.
func (s Slot) contains(minutes int) bool {
	switch s {
	case SlotFirst:
		return minutes >= 790 && minutes <= 990
	case SlotSecond:
		return minutes >= 1030 && minutes <= 1230
	case SlotThird:
		return minutes >= 1270 || minutes <= 30
	}
	return true
}

// TimeRange is the match window printed in announcements.
func (s Slot) TimeRange() string {
	switch s {
	case SlotFirst:
		return "01:10 PM - 04:30 PM"
	case SlotSecond:
		return "05:10 PM - 08:30 PM"
	case SlotThird:
		return "09:10 PM - 12:30 AM"
	}
	return "ALL SLOTS"
}

var tournamentStatuses = []string{"upcoming", "live", "completed"}

type TournamentSource interface {
	ListTournaments(ctx context.Context, status string, size int) (*api.TournamentListResponse, error)
}

type TournamentLink struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	StartsAt time.Time `json:"startsAt"`
	Link     string    `json:"link"`
}

type TournamentService struct {
	source    TournamentSource
	organiser string
	location  *time.Location
	logger    zerolog.Logger
	now       func() time.Time
}

func NewTournamentService(source TournamentSource, organiser string, location *time.Location, logger zerolog.Logger) *TournamentService {
	if location == nil {
		location = time.Local
	}
	return &TournamentService{
		source:    source,
		organiser: organiser,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *TournamentService) Location() *time.Location { return s.location }

// Find lists the organiser's tournaments on the given calendar day and slot,
// in start order. A tournament starting before 01:00 belongs to the previous
// day's late slot.
func (s *TournamentService) Find(ctx context.Context, date time.Time, slot Slot) ([]TournamentLink, error) {
	date = date.In(s.location)
	size := constants.TournamentPage
	if sameDay(date, s.now().In(s.location)) {
		size = constants.TodayPageSize
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	lists := make([][]api.Tournament, len(tournamentStatuses))
	g, gCtx := errgroup.WithContext(ctx)
	for i, status := range tournamentStatuses {
		g.Go(func() error {
			resp, err := s.source.ListTournaments(gCtx, status, size)
			if err != nil {
				return fmt.Errorf("failed to list %s tournaments: %w", status, err)
			}
			if resp.Data != nil {
				lists[i] = resp.Data.Tournaments
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []TournamentLink
	for _, list := range lists {
		for _, t := range list {
			id := strings.TrimSpace(string(t.ID))
			if id == "" || seen[id] || t.Space == nil || t.Space.Name != s.organiser {
				continue
			}
			local := t.StartDate.In(s.location)
			day := local
			if local.Hour() < 1 {
				day = local.AddDate(0, 0, -1)
			}
			if !sameDay(day, date) || !slot.contains(local.Hour()*60+local.Minute()) {
				continue
			}
			seen[id] = true
			links = append(links, TournamentLink{
				ID:       id,
				Name:     t.Name,
				StartsAt: local,
				Link:     api.TournamentLink(id),
			})
		}
	}

	slices.SortStableFunc(links, func(a, b TournamentLink) int {
		return cmp.Compare(slotMinutes(a.StartsAt), slotMinutes(b.StartsAt))
	})

	s.logger.Debug().
		Str("date", date.Format(time.DateOnly)).
		Str("slot", string(slot)).
		Int("found", len(links)).
		Msg("tournament links found")
	return links, nil
}

// Announcement renders the shareable post for a slot: the organiser header
// and match window, then one "time : link" line per tournament.
func (s *TournamentService) Announcement(slot Slot, links []TournamentLink) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nCOMPETITIVE SCRIMS\n\nMATCH TIME : %s\n", strings.ToUpper(s.organiser), slot.TimeRange())
	b.WriteString(announcementRule)
	for i, l := range links {
		if i > 0 {
			b.WriteString("\n\n")
		} else {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s : %s", l.StartsAt.In(s.location).Format("03:04 PM"), l.Link)
	}
	return b.String()
}

const announcementRule = "━━━━━━━━━━━━━━━━━━━━"

// after-midnight starts sort last
func slotMinutes(t time.Time) int {
	m := t.Hour()*60 + t.Minute()
	if m < 60 {
		m += 24 * 60
	}
	return m
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
