package enums

// Kind is Reddit's thing type discriminator.
type Kind string

const (
	KindComment Kind = "t1"
	KindAccount Kind = "t2"
	KindLink    Kind = "t3"
	KindMore    Kind = "more"
	KindListing Kind = "Listing"
)
