package game

// A migration upgrades a raw snapshot from an older schema version.
// Steps run in order against any snapshot below their version and are
// additive only: they fill missing fields, never drop or reorder
// existing ones.
type migration struct {
	Version int
	Apply   func(*rawState)
}

var migrations = []migration{
	{Version: 2, Apply: migrateV2},
}

// migrateV2 backfills the fields introduced with the v2 schema: per-player
// display colors and the expanded settings block.
func migrateV2(s *rawState) {
	if s.Players != nil {
		for i := range *s.Players {
			p := &(*s.Players)[i]
			if p.Color == "" {
				p.Color = PlayerColors[i%len(PlayerColors)]
			}
		}
	}
	if s.Settings == nil {
		s.Settings = &rawSettings{}
	}
	if s.Settings.ScoreDirection == nil {
		v := string(DirectionHighest)
		s.Settings.ScoreDirection = &v
	}
	if s.Settings.Language == nil {
		v := DefaultSettings().Language
		s.Settings.Language = &v
	}
	if s.Settings.Theme == nil {
		v := DefaultSettings().Theme
		s.Settings.Theme = &v
	}
	if s.Settings.SortByScore == nil {
		v := false
		s.Settings.SortByScore = &v
	}
}

func migrate(s *rawState) {
	for _, m := range migrations {
		if s.Version < m.Version {
			m.Apply(s)
			s.Version = m.Version
		}
	}
}
