package rakuten

import "github.com/shopspring/decimal"

// The VacantHotelSearch payload has shifted shape across API revisions.
// Every field below is optional; decoding never fails on absence, and the
// normalizer degrades record by record instead.

// VacantHotelResponse is the top-level search payload.
type VacantHotelResponse struct {
	Hotels []HotelEntry `json:"hotels,omitempty"`
}

// HotelEntry wraps one hotel's node list.
type HotelEntry struct {
	Hotel []HotelNode `json:"hotel,omitempty"`
}

// HotelNode is one element of the mixed hotel array: it carries either the
// hotel's basic info or a list of room entries, never both.
type HotelNode struct {
	HotelBasicInfo *HotelBasicInfo `json:"hotelBasicInfo,omitempty"`
	RoomInfo       []RoomEntry     `json:"roomInfo,omitempty"`
}

// HotelBasicInfo identifies the hotel.
type HotelBasicInfo struct {
	HotelNo   int    `json:"hotelNo,omitempty"`
	HotelName string `json:"hotelName,omitempty"`
}

// RoomEntry is one element of a roomInfo array. Older payloads use
// roomBasicInfo/dailyCharge, newer ones roomBasic/daily; an entry may also
// carry only one of the pair, with its counterpart in the next entry.
type RoomEntry struct {
	RoomBasicInfo *RoomBasicInfo `json:"roomBasicInfo,omitempty"`
	RoomBasic     *RoomBasicInfo `json:"roomBasic,omitempty"`
	DailyCharge   *DailyCharge   `json:"dailyCharge,omitempty"`
	Daily         *DailyCharge   `json:"daily,omitempty"`
}

// Basic returns whichever room descriptor variant is present.
func (e RoomEntry) Basic() *RoomBasicInfo {
	if e.RoomBasicInfo != nil {
		return e.RoomBasicInfo
	}
	return e.RoomBasic
}

// Charge returns whichever charge variant is present.
func (e RoomEntry) Charge() *DailyCharge {
	if e.DailyCharge != nil {
		return e.DailyCharge
	}
	return e.Daily
}

// RoomBasicInfo describes a bookable room/plan.
type RoomBasicInfo struct {
	RoomClass string `json:"roomClass,omitempty"`
	RoomName  string `json:"roomName,omitempty"`
	PlanID    int    `json:"planId,omitempty"`
	PlanName  string `json:"planName,omitempty"`
}

// DailyCharge carries the nightly rate for one stay date.
type DailyCharge struct {
	StayDate      string           `json:"stayDate,omitempty"`
	RakutenCharge *decimal.Decimal `json:"rakutenCharge,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	ChargeFlag    int              `json:"chargeFlag,omitempty"`
}
