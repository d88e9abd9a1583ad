package testutils

type Position struct{ X, Y float64 }

func (Position) Name() string { return "Position" }

type Velocity struct{ X, Y float64 }

func (Velocity) Name() string { return "Velocity" }

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "Health" }

type Frozen struct{}

func (Frozen) Name() string { return "Frozen" }

type Sprite struct{ Path string }

func (Sprite) Name() string { return "Sprite" }

type PlayerTag struct{ Tag string }

func (PlayerTag) Name() string { return "PlayerTag" }
