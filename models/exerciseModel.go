package models

type Exercise struct {
	ID          int64  `json:"id_ejercicio" bson:"id_ejercicio" yaml:"id" gorm:"column:id_ejercicio;primaryKey;autoIncrement:false"`
	Name        string `json:"nombre" bson:"nombre" yaml:"nombre" gorm:"column:nombre;not null" validate:"required,min=2,max=100"`
	Description string `json:"descripcion" bson:"descripcion" yaml:"descripcion" gorm:"column:descripcion" validate:"required"`
	Repetitions int    `json:"repeticiones" bson:"repeticiones" yaml:"repeticiones" gorm:"column:repeticion" validate:"gte=0"`
	VideoURL    string `json:"url_video" bson:"url" yaml:"url" gorm:"column:url"`
	Extremity   string `json:"extremidad" bson:"extremidad" yaml:"extremidad" gorm:"column:extremidad"`
}

func (Exercise) TableName() string { return "ejercicio" }

// ExtremityOrDefault mirrors the catalog convention of grouping uncategorized
// exercises under "General".
func (e Exercise) ExtremityOrDefault() string {
	if e.Extremity == "" {
		return "General"
	}
	return e.Extremity
}
