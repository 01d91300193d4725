package model

import "gorm.io/datatypes"

const ProvisionRunTableName = "provision_runs"

// ProvisionRun 工作流运行记录 (saga 状态)
//
// 每次开通/轮换/启停/改来源/删除都会落一条, 部署失败的记录由巡检任务补偿
type ProvisionRun struct {
	BaseModel
	RunID        string         `gorm:"column:run_id;size:36;not null;uniqueIndex" json:"run_id"`
	ProjectID    int64          `gorm:"column:project_id;not null;default:0;index" json:"project_id"`
	Kind         string         `gorm:"column:kind;size:32;not null" json:"kind"`
	State        string         `gorm:"column:state;size:32;not null;index" json:"state"`
	Detail       datatypes.JSON `gorm:"column:detail;type:json" json:"detail,omitempty"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	Attempts     int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
}

func (ProvisionRun) TableName() string {
	return ProvisionRunTableName
}
