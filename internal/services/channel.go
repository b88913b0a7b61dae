package services

import "fmt"

type ChannelKind string

const (
	ChannelTrip         ChannelKind = "trip"
	ChannelReservations ChannelKind = "reservations"
	ChannelChat         ChannelKind = "chat"
)

// ChannelKey identifies one fanout group. It is a value type with structural
// equality so it can key the registry map directly.
type ChannelKey struct {
	Kind ChannelKind
	ID   uint
}

func TripChannel(tripID uint) ChannelKey {
	return ChannelKey{Kind: ChannelTrip, ID: tripID}
}

func ReservationsChannel(driverID uint) ChannelKey {
	return ChannelKey{Kind: ChannelReservations, ID: driverID}
}

func ChatChannel(reservationID uint) ChannelKey {
	return ChannelKey{Kind: ChannelChat, ID: reservationID}
}

func (k ChannelKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}
