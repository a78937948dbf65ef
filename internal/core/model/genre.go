package model

// GenreFrequency is one aggregated row: how many watched items carry Genre.
type GenreFrequency struct {
	Genre string `json:"genre"`
	Freq  int64  `json:"freq"`
}
