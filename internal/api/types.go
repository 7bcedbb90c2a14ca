package api

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// List decodes a JSON array and leaves the field empty for any other shape,
// so one malformed level yields no records instead of failing the response.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(b []byte) error {
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		*l = nil
		return nil
	}
	*l = items
	return nil
}

// Score accepts numbers, numeric strings and null; anything else is 0.
type Score float64

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*s = 0
			return nil
		}
		b = []byte(strings.TrimSpace(str))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = Score(v)
	return nil
}

// Text accepts strings and numbers for identifier fields. Any other value
// reads as empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*t = Text(str)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		*t = ""
		return nil
	}
	*t = Text(b)
	return nil
}

// Status accepts a number or a numeric string. Anything else reads as -1,
// which is never the success status.
type Status int

func (s *Status) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*s = -1
			return nil
		}
		b = []byte(strings.TrimSpace(str))
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		*s = -1
		return nil
	}
	*s = Status(v)
	return nil
}

type TournamentResultResponse struct {
	Status  Status                `json:"status"`
	Message string                `json:"message,omitempty"`
	Data    *TournamentResultData `json:"data"`
}

type TournamentResultData struct {
	TournamentResult List[ResultRound] `json:"tournamentResult"`
}

// UnmarshalJSON leaves the data empty when it is not an object.
func (d *TournamentResultData) UnmarshalJSON(b []byte) error {
	type plain TournamentResultData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*d = TournamentResultData{}
		return nil
	}
	*d = TournamentResultData(p)
	return nil
}

type ResultRound struct {
	Result List[ResultGroup] `json:"result"`
}

type ResultGroup struct {
	Result List[TeamResult] `json:"result"`
}

type TeamResult struct {
	TeamID   Text  `json:"teamId"`
	TeamName Text  `json:"teamName"`
	Score    Score `json:"score"`
}

type TournamentListResponse struct {
	Status int                 `json:"status"`
	Data   *TournamentListData `json:"data"`
}

type TournamentListData struct {
	Tournaments List[Tournament] `json:"tournaments"`
}

type Tournament struct {
	ID        Text      `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	Space     *Space    `json:"space"`
}

type Space struct {
	Name string `json:"name"`
}
