package model

// VehicleSummary 车辆登记信息（来自外部车辆注册服务）
type VehicleSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	PlateNumber string `json:"plate_number,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Placeholder returns the minimal metadata substituted when the registry
// is unavailable; report generation prefers availability over enrichment.
func Placeholder(vehicleID string) *VehicleSummary {
	return &VehicleSummary{ID: vehicleID}
}

// FleetCounts 车队数量统计（来自外部车辆注册服务）
type FleetCounts struct {
	CountByType   map[string]int `json:"count_by_type"`
	CountByStatus map[string]int `json:"count_by_status"`
}
