package rakuten

import (
	"github.com/shopspring/decimal"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

// fallbackRoomLabel is used when a room entry carries neither a room name
// nor a plan name.
const fallbackRoomLabel = "プラン"

// Normalize flattens a vacancy response into canonical availability records
// for a stay between checkin and checkout. Normalization is best-effort: a
// missing price or stay date degrades the record, it never drops the whole
// response. Records for the checkout date itself are excluded since the API
// reports it as part of the stay range without it being a bookable night.
// At most one record per (date, room type) is returned; a later entry for
// the same pair replaces the earlier one.
func Normalize(resp *VacantHotelResponse, checkin, checkout datetime.Date) []model.RoomAvailability {
	if resp == nil {
		return nil
	}

	hotelName := findHotelName(resp)

	var records []model.RoomAvailability
	index := make(map[string]int)

	for _, entry := range resp.Hotels {
		for _, node := range entry.Hotel {
			for i, room := range node.RoomInfo {
				basic := room.Basic()
				if basic == nil {
					continue
				}

				charge := room.Charge()
				if charge == nil && i+1 < len(node.RoomInfo) {
					// Split record: the charge landed in the next entry.
					charge = node.RoomInfo[i+1].Charge()
				}

				record := model.RoomAvailability{
					Date:        stayDate(charge, checkin),
					RoomType:    roomLabel(hotelName, basic),
					IsAvailable: true,
					Price:       price(charge),
				}

				if record.Date.Equal(checkout) {
					continue
				}

				if at, seen := index[record.Key()]; seen {
					records[at] = record
					continue
				}
				index[record.Key()] = len(records)
				records = append(records, record)
			}
		}
	}

	return records
}

// findHotelName locates the hotel's display name in the mixed node list.
func findHotelName(resp *VacantHotelResponse) string {
	for _, entry := range resp.Hotels {
		for _, node := range entry.Hotel {
			if node.HotelBasicInfo != nil && node.HotelBasicInfo.HotelName != "" {
				return node.HotelBasicInfo.HotelName
			}
		}
	}
	return ""
}

// roomLabel builds the canonical room type: "{hotel} - {room or plan}".
func roomLabel(hotelName string, basic *RoomBasicInfo) string {
	label := basic.RoomName
	if label == "" {
		label = basic.PlanName
	}
	if label == "" {
		label = fallbackRoomLabel
	}
	if hotelName == "" {
		return label
	}
	return hotelName + " - " + label
}

// stayDate resolves the record's date from the charge, falling back to the
// requested checkin when absent or unparseable.
func stayDate(charge *DailyCharge, checkin datetime.Date) datetime.Date {
	if charge == nil || charge.StayDate == "" {
		return checkin
	}
	d, err := datetime.ParseDate(charge.StayDate)
	if err != nil {
		return checkin
	}
	return d
}

// price picks the first present price candidate, in fixed preference order.
func price(charge *DailyCharge) *decimal.Decimal {
	if charge == nil {
		return nil
	}
	if charge.RakutenCharge != nil {
		return charge.RakutenCharge
	}
	return charge.Total
}
