package block

// Intent classifies a block's semantic purpose. It is derived from the
// block's kind and fields and is used to select the required proof of work
// difficulty.
type Intent struct {
	IsFirst   bool // The first block in the account's chain.
	IsSend    bool // Funds leave the account.
	IsReceive bool // Funds arrive into the account.
	IsChange  bool // The representative changes without moving funds.
	IsEpoch   bool // An epoch upgrade marker.
	IsGenesis bool // The network genesis block.
}

// Intent derives the block's intent flags.
func (b Block) Intent() Intent {
	switch b.kind {
	case KindOpen:
		return Intent{IsFirst: true, IsReceive: true}

	case KindSend:
		return Intent{IsSend: true}

	case KindReceive:
		return Intent{IsReceive: true}

	case KindChange:
		return Intent{IsChange: true}

	case KindState:
		first := b.previous.IsZero()
		switch b.subtype {
		case SubtypeOpen:
			return Intent{IsFirst: true, IsReceive: true}
		case SubtypeSend:
			return Intent{IsSend: true}
		case SubtypeReceive:
			return Intent{IsFirst: first, IsReceive: true}
		case SubtypeChange:
			return Intent{IsChange: true}
		case SubtypeEpoch:
			return Intent{IsFirst: first, IsEpoch: true}
		}
	}

	return Intent{}
}
