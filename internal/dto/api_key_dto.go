package dto

// APIKeyResponse 明文密钥, 只在开通、轮换或首次查看时返回
type APIKeyResponse struct {
	ProjectID int64  `json:"project_id"`
	APIKey    string `json:"api_key"`
	Warning   string `json:"warning"`
}

// APIKeyStatusResponse 密钥状态
type APIKeyStatusResponse struct {
	Exists      bool    `json:"exists"`
	IsDisplayed bool    `json:"is_displayed"`
	CanBeViewed bool    `json:"can_be_viewed"`
	Version     int64   `json:"version,omitempty"`
	CreatedAt   *string `json:"created_at,omitempty"`
	RotatedAt   *string `json:"rotated_at,omitempty"`
}

// RotateResponse 轮换结果
type RotateResponse struct {
	RunID     string                `json:"run_id"`
	State     string                `json:"state"`
	ProjectID int64                 `json:"project_id"`
	APIKey    string                `json:"api_key,omitempty"`
	Version   int64                 `json:"version,omitempty"`
	Persisted bool                  `json:"persisted"`
	Deploy    DeployOutcomeResponse `json:"deploy"`
	Warning   string                `json:"warning,omitempty"`
}

// GatewayPingResponse 网关探活
type GatewayPingResponse struct {
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}
