package threads

// Reaction emojis the flows prompt with.
const (
	YesEmoji  = "\U0001F44D" // thumbs up
	NoEmoji   = "\U0001F44E" // thumbs down
	SkipEmoji = "\U000023ED" // next track
)

// pickerEmojis are handed out in order when a step needs N distinct
// choices (field selection, guild selection). The assignment must be
// stable across rebuilds, which holding them in a fixed slice guarantees.
var pickerEmojis = []string{
	"\U0001F47D", // alien
	"\U0001F47E", // alien monster
	"\U0001F916", // robot
	"\U0001F47B", // ghost
	"\U0001F921", // clown
	"\U0001F63A", // grinning cat
	"\U0001F60E", // smiling with sunglasses
	"\U0001F9E0", // brain
	"\U0001F4A3", // bomb
	"\U0001F4A5", // collision
	"\U0001F9BE", // mechanical arm
}

// PickerEmojis returns the first n choice emojis.
func PickerEmojis(n int) []string {
	if n > len(pickerEmojis) {
		n = len(pickerEmojis)
	}
	return pickerEmojis[:n]
}
