// Package teams provides the team directory used to populate selectors and resolve requests.
package teams

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"CourtEdge/internal/domain/models"
	"CourtEdge/internal/domain/repository"
	"CourtEdge/pkg/util"

	"gopkg.in/yaml.v3"
)

//go:embed teams.yaml
var builtin []byte

type teamsFile struct {
	Teams []models.Team `yaml:"teams"`
}

// Directory is an immutable, ordered team list with lookup indexes.
type Directory struct {
	teams  []models.Team
	byID   map[int64]int
	byName map[string]int
}

var _ repository.TeamDirectory = (*Directory)(nil)

// New indexes teams in the given order. IDs and names must be unique.
func New(teams []models.Team) (*Directory, error) {
	if len(teams) == 0 {
		return nil, fmt.Errorf("team directory is empty")
	}
	d := &Directory{
		teams:  append([]models.Team(nil), teams...),
		byID:   make(map[int64]int, len(teams)),
		byName: make(map[string]int, len(teams)*3),
	}
	for i, t := range d.teams {
		if t.ID <= 0 || t.FullName == "" {
			return nil, fmt.Errorf("team at position %d needs an id and full_name", i)
		}
		if _, dup := d.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate team id %d", t.ID)
		}
		d.byID[t.ID] = i
		for _, name := range []string{t.FullName, t.Abbreviation, t.Nickname} {
			key := normalize(name)
			if key == "" {
				continue
			}
			if j, dup := d.byName[key]; dup && j != i {
				return nil, fmt.Errorf("team name %q is ambiguous", name)
			}
			d.byName[key] = i
		}
	}
	return d, nil
}

// Parse builds a directory from a YAML document with a top-level `teams` list.
func Parse(b []byte) (*Directory, error) {
	var f teamsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse teams: %w", err)
	}
	return New(f.Teams)
}

// Load reads a teams file, or the built-in NBA list when path is empty.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Parse(builtin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read teams: %w", err)
	}
	return Parse(b)
}

// ListTeams returns a copy of the ordered list.
func (d *Directory) ListTeams(_ context.Context) ([]models.Team, error) {
	return append([]models.Team(nil), d.teams...), nil
}

// Len returns the number of teams.
func (d *Directory) Len() int { return len(d.teams) }

// At returns the team at a list position.
func (d *Directory) At(index int) (models.Team, bool) {
	if index < 0 || index >= len(d.teams) {
		return models.Team{}, false
	}
	return d.teams[index], true
}

// ByID resolves a numeric team id.
func (d *Directory) ByID(_ context.Context, id int64) (models.Team, error) {
	if i, ok := d.byID[id]; ok {
		return d.teams[i], nil
	}
	return models.Team{}, fmt.Errorf("%w: id %d", models.ErrTeamNotFound, id)
}

// Lookup resolves an id, abbreviation, nickname or full name (case-insensitive).
func (d *Directory) Lookup(ctx context.Context, idOrName string) (models.Team, error) {
	if id, ok := util.ParseID(idOrName); ok {
		return d.ByID(ctx, id)
	}
	if i, ok := d.byName[normalize(idOrName)]; ok {
		return d.teams[i], nil
	}
	return models.Team{}, fmt.Errorf("%w: %q", models.ErrTeamNotFound, idOrName)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
