package schedcmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parser recognizes schedule commands for a fixed set of categories.
type Parser struct {
	categories []CategoryRef
	slotCount  int
}

// NewParser builds a parser for the given category codes. slotCount is
// the number of slots per category and bounds slot indexes and bulk
// title lists.
func NewParser(categories []CategoryRef, slotCount int) *Parser {
	return &Parser{categories: categories, slotCount: slotCount}
}

// Parse turns an inbound message into a Command. It returns
// ErrNotCommand when the message does not start with a known command
// name; other errors describe what is wrong with a recognized command
// and include a usage hint.
func (p *Parser) Parse(raw string) (Command, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, ErrNotCommand
	}
	head := strings.ToLower(fields[0])

	for _, cat := range p.categories {
		code := strings.ToLower(cat.Code)
		switch head {
		case "/clear" + code:
			if len(fields) != 1 {
				return nil, fmt.Errorf("%w: usage: /clear%s", ErrBadFormat, code)
			}
			return ClearBookings{Category: cat.Name}, nil
		case "/del" + code:
			return p.parseDel(cat, code, fields)
		case "/set" + code:
			return p.parseSet(cat, code, fields)
		}
	}
	return nil, ErrNotCommand
}

func (p *Parser) parseDel(cat CategoryRef, code string, fields []string) (Command, error) {
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: usage: /del%s N (N=1..%d)", ErrBadFormat, code, p.slotCount)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > p.slotCount {
		return nil, fmt.Errorf("%w: N must be 1..%d", ErrBadIndex, p.slotCount)
	}
	return ClearSlot{Category: cat.Name, Index: n}, nil
}

func (p *Parser) parseSet(cat CategoryRef, code string, fields []string) (Command, error) {
	// Single form first: /set<code> N d t CAP LIMIT.
	if cmd, err := p.parseSetSingle(cat, fields); err == nil {
		return cmd, nil
	} else if err != errTrySingleBulk {
		return nil, err
	}
	return p.parseSetBulk(cat, code, fields)
}

// errTrySingleBulk is an internal signal that the input does not match
// the single form's shape and the bulk form should be tried.
var errTrySingleBulk = errors.New("not the single form")

func (p *Parser) parseSetSingle(cat CategoryRef, fields []string) (Command, error) {
	if len(fields) != 6 {
		return nil, errTrySingleBulk
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, errTrySingleBulk
	}
	if n < 1 || n > p.slotCount {
		return nil, fmt.Errorf("%w: N must be 1..%d", ErrBadIndex, p.slotCount)
	}
	date, clock := strings.TrimSpace(fields[2]), strings.TrimSpace(fields[3])
	if date == "" || clock == "" {
		return nil, fmt.Errorf("%w: date and time must not be empty", ErrBadFormat)
	}
	capacity, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, fmt.Errorf("%w: CAP and LIMIT must be numbers", ErrBadNumbers)
	}
	limit, err := strconv.Atoi(fields[5])
	if err != nil {
		return nil, fmt.Errorf("%w: CAP and LIMIT must be numbers", ErrBadNumbers)
	}
	return SetSlot{
		Category: cat.Name,
		Index:    n,
		Title:    date + " " + clock,
		Capacity: capacity,
		Limit:    limit,
	}, nil
}

func (p *Parser) parseSetBulk(cat CategoryRef, code string, fields []string) (Command, error) {
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: usage: /set%s d1 t1 [d2 t2 ...] CAP LIMIT", ErrBadFormat, code)
	}
	capacity, err := strconv.Atoi(fields[len(fields)-2])
	if err != nil {
		return nil, fmt.Errorf("%w: the last two arguments must be numbers: CAP LIMIT", ErrBadNumbers)
	}
	limit, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: the last two arguments must be numbers: CAP LIMIT", ErrBadNumbers)
	}

	mid := fields[1 : len(fields)-2]
	if len(mid)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d date/time arguments", ErrBadPairs, len(mid))
	}
	var titles []string
	for i := 0; i < len(mid); i += 2 {
		date, clock := strings.TrimSpace(mid[i]), strings.TrimSpace(mid[i+1])
		if date == "" || clock == "" {
			continue
		}
		titles = append(titles, date+" "+clock)
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: no date/time pairs recognized", ErrBadFormat)
	}
	if len(titles) > p.slotCount {
		titles = titles[:p.slotCount]
	}
	return SetSchedule{
		Category: cat.Name,
		Titles:   titles,
		Capacity: capacity,
		Limit:    limit,
	}, nil
}
