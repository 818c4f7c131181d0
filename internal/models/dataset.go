package models

// DatasetMeta describes the provenance block of a loaded dataset
// document.
type DatasetMeta struct {
	Generated string `json:"generated"`
	Total     int    `json:"total"`
	Source    string `json:"source"`
	License   string `json:"license"`
	Region    string `json:"region,omitempty"`
}

// DatasetDocument is the on-disk/over-the-wire shape of the bar catalog:
// a metadata block followed by the point records.
type DatasetDocument struct {
	Meta DatasetMeta `json:"meta"`
	Bars []GeoPoint  `json:"bars"`
}
