package game

import "math/rand"

// Deck is a draw pile plus a discard pile. The top of the draw pile is the
// last element.
type Deck struct {
	Name    DeckName
	draw    []*Card
	discard []*Card
	rng     *rand.Rand

	// OnReshuffle is called after the discard pile becomes the draw pile.
	OnReshuffle func(name DeckName, cards int)
}

// NewDeck builds a shuffled deck from the given cards. The slice is copied.
func NewDeck(name DeckName, cards []*Card, rng *rand.Rand) *Deck {
	d := &Deck{
		Name: name,
		draw: append([]*Card(nil), cards...),
		rng:  rng,
	}
	d.shuffle()
	return d
}

func (d *Deck) shuffle() {
	if d.rng == nil {
		return
	}
	d.rng.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}

// Draw removes the top card. An empty draw pile is refilled from the shuffled
// discard pile first. Returns nil when both piles are empty.
func (d *Deck) Draw() *Card {
	if len(d.draw) == 0 {
		if len(d.discard) == 0 {
			return nil
		}
		d.draw, d.discard = d.discard, nil
		d.shuffle()
		if d.OnReshuffle != nil {
			d.OnReshuffle(d.Name, len(d.draw))
		}
	}
	card := d.draw[len(d.draw)-1]
	d.draw = d.draw[:len(d.draw)-1]
	return card
}

// Discard puts a card on the discard pile. It never reshuffles.
func (d *Deck) Discard(card *Card) {
	if card == nil {
		return
	}
	d.discard = append(d.discard, card)
}

// Len returns the number of cards left in the draw pile.
func (d *Deck) Len() int {
	return len(d.draw)
}

// DiscardLen returns the number of cards in the discard pile.
func (d *Deck) DiscardLen() int {
	return len(d.discard)
}
