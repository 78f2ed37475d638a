package service

import (
	"time"

	"github.com/vivimassa/horizon-sub000/internal/dto"
	"github.com/vivimassa/horizon-sub000/internal/rotation"
	"github.com/vivimassa/horizon-sub000/internal/workspace"
)

const boardTimeLayout = "2006-01-02T15:04"

// toBoardResponse 看板快照 → 响应
func toBoardResponse(b *workspace.Board) *dto.BoardResponse {
	if b == nil {
		return nil
	}
	resp := &dto.BoardResponse{
		Start:          b.Window.Start.String(),
		Days:           b.Window.Days,
		Strategy:       string(b.Strategy),
		Rows:           make([]dto.TailRowResponse, 0, len(b.Aircraft)),
		Conflicts:      make([]dto.ConflictResponse, 0, len(b.Conflicts)),
		ConflictCounts: b.ConflictCounts(),
		Overflow:       make([]dto.OverflowGroupResponse, 0, len(b.Overflow)),
		Pending:        b.Pending,
		Overrides:      b.Overrides,
		ComputedAt:     b.ComputedAt.UTC().Format(time.RFC3339),
	}

	if b.Requested != b.Window && b.Requested.Days > 0 {
		resp.RequestedStart = b.Requested.Start.String()
		resp.RequestedDays = b.Requested.Days
	}

	for _, row := range b.Rows() {
		tr := dto.TailRowResponse{
			Registration: row.Aircraft.Registration,
			AircraftType: row.Aircraft.Type,
			Active:       row.Aircraft.Active,
			Legs:         make([]dto.OccurrenceResponse, 0, len(row.Legs)),
		}
		for _, leg := range row.Legs {
			tr.Legs = append(tr.Legs, toOccurrenceResponse(leg.Occurrence, leg.Resolution))
		}
		resp.Rows = append(resp.Rows, tr)
	}

	for _, c := range b.Conflicts {
		resp.Conflicts = append(resp.Conflicts, dto.ConflictResponse{
			Registration:    c.Registration,
			Date:            c.Date.String(),
			Kind:            string(c.Kind),
			Hard:            c.IsHard(),
			FirstKey:        c.First.Key.String(),
			SecondKey:       c.Second.Key.String(),
			GapMinutes:      int(c.Gap / time.Minute),
			RequiredMinutes: int(c.Required / time.Minute),
			Detail:          c.Detail,
		})
	}

	for _, g := range b.Overflow {
		og := dto.OverflowGroupResponse{
			AircraftType: g.AircraftType,
			Occurrences:  make([]dto.OccurrenceResponse, 0, len(g.Occurrences)),
		}
		for _, o := range g.Occurrences {
			og.Occurrences = append(og.Occurrences, toOccurrenceResponse(o, b.Resolutions[o.Key]))
		}
		resp.Overflow = append(resp.Overflow, og)
	}
	return resp
}

func toOccurrenceResponse(o rotation.Occurrence, r rotation.Resolution) dto.OccurrenceResponse {
	return dto.OccurrenceResponse{
		Key:          o.Key.String(),
		PatternID:    o.Key.PatternID,
		Date:         o.Key.Date.String(),
		FlightNumber: o.FlightNumber,
		DepStation:   o.DepStation,
		ArrStation:   o.ArrStation,
		Departure:    o.Departure.Format(boardTimeLayout),
		Arrival:      o.Arrival.Format(boardTimeLayout),
		AircraftType: o.AircraftType,
		Registration: r.Registration,
		Source:       r.Source.String(),
		Pending:      r.Pending,
	}
}

func toNoticeResponses(notices []workspace.Notice) []dto.NoticeResponse {
	out := make([]dto.NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, dto.NoticeResponse{
			ID:      n.ID,
			Kind:    string(n.Kind),
			Message: n.Message,
			Keys:    keyStrings(n.Keys),
			At:      n.At.UTC().Format(time.RFC3339),
		})
	}
	return out
}
