package game

const (
	MaxPlayers = 6

	FieldWidth  = 900.0
	FieldHeight = 700.0
	SpawnInset  = 50.0 // minimum distance from the field border at round start

	PointsPerSeat = 10 // maxPoints = max(1, seats-1) * PointsPerSeat
)
