package model

// Video 视频库条目，上传后供对比任务引用
// swagger:model Video
type Video struct {
	UUIDBase
	Key       string  `gorm:"size:500;uniqueIndex;not null" json:"key"`
	URL       string  `gorm:"size:500" json:"url"`
	ModelName string  `gorm:"size:100;index" json:"modelName"`
	Scenario  string  `gorm:"size:100;index" json:"scenario"`
	SizeBytes int64   `gorm:"default:0" json:"sizeBytes"`
	Duration  float64 `gorm:"default:0" json:"duration"`
	Width     int     `gorm:"default:0" json:"width"`
	Height    int     `gorm:"default:0" json:"height"`
	Format    string  `gorm:"size:50" json:"format"`
}

func (Video) TableName() string {
	return "videos"
}
