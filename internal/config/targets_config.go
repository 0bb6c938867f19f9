package config

import "github.com/aleister1102/membertrack/internal/models"

// TargetsConfig holds the tracked channels and the regions they aggregate into
type TargetsConfig struct {
	Targets []models.Target `json:"targets,omitempty" yaml:"targets,omitempty" validate:"required,min=1,dive"`
	Regions []models.Region `json:"regions,omitempty" yaml:"regions,omitempty" validate:"omitempty,dive"`
}

// NewDefaultTargetsConfig returns the Conflux community channels
func NewDefaultTargetsConfig() TargetsConfig {
	tg := func(name, url string) models.Target {
		return models.Target{Name: name, URL: url, Kind: models.KindPageScrape}
	}

	return TargetsConfig{
		Targets: []models.Target{
			tg("Africa (TG)", "https://t.me/ConfluxAfrica"),
			tg("Arabic (TG)", "https://t.me/confluxarabic/"),
			tg("China Official (TG)", "https://t.me/Conflux_Chinese"),
			tg("China Web3 Community (TG)", "https://t.me/ConfluxWeb3China"),
			tg("English (TG)", "https://t.me/Conflux_English"),
			tg("French (TG)", "https://t.me/ConfluxFrench"),
			tg("Indonesia (TG)", "https://t.me/Conflux_indonesia"),
			tg("Korea (TG)", "https://t.me/ConfluxKorea"),
			tg("LATAM (TG)", "https://t.me/Conflux_LATAM"),
			tg("Persia (TG)", "https://t.me/ConfluxPersian1"),
			tg("Russian (TG)", "https://t.me/confluxrussian"),
			tg("Turkey (TG)", "https://t.me/Conflux_Turkish"),
			tg("Ukraine (TG)", "https://t.me/Conflux_Ukraine"),
			tg("Vietnam (TG)", "https://t.me/confluxvietnam"),
			{Name: "English (Discord)", URL: "https://discord.com/invite/confluxnetwork", Kind: models.KindStructuredAPI},
		},
		Regions: []models.Region{
			{Name: "Africa", Targets: []string{"Africa (TG)"}},
			{Name: "Asia", Targets: []string{"Indonesia (TG)", "Korea (TG)", "Vietnam (TG)"}},
			{Name: "China", Targets: []string{"China Official (TG)", "China Web3 Community (TG)"}},
			{Name: "EU + Russian + Ukraine", Targets: []string{"French (TG)", "Russian (TG)", "Ukraine (TG)"}},
			{Name: "Global (English)", Targets: []string{"English (TG)", "English (Discord)"}},
			{Name: "Middle East", Targets: []string{"Arabic (TG)", "Persia (TG)", "Turkey (TG)"}},
			{Name: "Spanish (LATAM)", Targets: []string{"LATAM (TG)"}},
		},
	}
}
