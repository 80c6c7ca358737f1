package entity

import "time"

// Plant is a batching plant orders can be allocated to.
type Plant struct {
	ID        int64     `json:"id"`
	PlantName string    `json:"plantName"`
	CreatedAt time.Time `json:"-"`
}

// TransitMixer is a delivery truck, identified by its registration number.
type TransitMixer struct {
	ID          int64     `json:"id"`
	MixerNumber string    `json:"mixerNumber"`
	CreatedAt   time.Time `json:"-"`
}

// Assignment binds one order to a plant, its mixers and drivers. The names of the
// referenced plant and mixers are filled in on read.
type Assignment struct {
	ID                int64     `json:"id"`
	OrderID           string    `json:"orderId"`
	PlantID           int64     `json:"plantId"`
	PlantName         string    `json:"plantName"`
	MixerID           *int64    `json:"mixerId"`
	MixerNumber       string    `json:"mixerNumber,omitempty"`
	BackupMixerID     *int64    `json:"backupMixerId"`
	BackupMixerNumber string    `json:"backupMixerNumber,omitempty"`
	DriverName        string    `json:"driverName"`
	BackupDriverName  string    `json:"backupDriverName"`
	PriorityLevel     string    `json:"priorityLevel"`
	PlantAllocation   string    `json:"plantAllocation"`
	CreatedAt         time.Time `json:"-"`
}
