package entity

// ProductionSchedule is the admin production form.
type ProductionSchedule struct {
	ProductionDate      *Date     `json:"productionDate"`
	ProductionSlotStart *DateTime `json:"productionSlotStart"`
	ProductionSlotEnd   *DateTime `json:"productionSlotEnd"`
	PlantAllocation     *string   `json:"plantAllocation"`
	PriorityLevel       *string   `json:"priorityLevel"`
}

// DispatchSchedule is the admin dispatch form.
type DispatchSchedule struct {
	DispatchDateTime    *DateTime `json:"dispatchDateTime"`
	TripPlanning        *string   `json:"tripPlanning"`
	DeliverySequence    *string   `json:"deliverySequence"`
	ExpectedArrivalTime *DateTime `json:"expectedArrivalTime"`
}

// VehicleSchedule assigns a transit mixer and driver. Backups are optional.
type VehicleSchedule struct {
	TransitMixerNumber       string `json:"transitMixerNumber"`
	DriverName               string `json:"driverName"`
	DriverShift              string `json:"driverShift"`
	BackupTransitMixerNumber string `json:"backupTransitMixerNumber"`
	BackupDriverName         string `json:"backupDriverName"`
}

// Reschedule carries a partial update; nil fields keep their current value.
type Reschedule struct {
	ProductionDate           *Date     `json:"productionDate,omitempty"`
	ProductionSlotStart      *DateTime `json:"productionSlotStart,omitempty"`
	ProductionSlotEnd        *DateTime `json:"productionSlotEnd,omitempty"`
	PlantAllocation          *string   `json:"plantAllocation,omitempty"`
	PriorityLevel            *string   `json:"priorityLevel,omitempty"`
	DispatchDateTime         *DateTime `json:"dispatchDateTime,omitempty"`
	TripPlanning             *string   `json:"tripPlanning,omitempty"`
	DeliverySequence         *string   `json:"deliverySequence,omitempty"`
	ExpectedArrivalTime      *DateTime `json:"expectedArrivalTime,omitempty"`
	TransitMixerNumber       *string   `json:"transitMixerNumber,omitempty"`
	DriverName               *string   `json:"driverName,omitempty"`
	DriverShift              *string   `json:"driverShift,omitempty"`
	BackupTransitMixerNumber *string   `json:"backupTransitMixerNumber,omitempty"`
	BackupDriverName         *string   `json:"backupDriverName,omitempty"`
	RescheduleReason         *string   `json:"rescheduleReason,omitempty"`
}
