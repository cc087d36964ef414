package db

// MessageRow è una riga della query di conversazione, già tipizzata.
// I campi opzionali NULL sono normalizzati a zero value durante lo scan.
type MessageRow struct {
	ID              int64
	MessageDate     float64
	Text            string
	IsFromMe        bool
	MessageType     int
	GroupMemberID   int64
	FromJID         string
	ToJID           string
	ChatSession     int64
	ParentMessageID int64
	Flags           int64
	ReceiptInfo     []byte
	MediaItemID     int64
	MediaLocalPath  string
	MediaTitle      string
	MediaFileSize   int64
	MediaLatitude   float64
	MediaLongitude  float64
}

// MediaItemRow è una riga della tabella ZWAMEDIAITEM
type MediaItemRow struct {
	ID        int64
	LocalPath string
	Title     string
	FileSize  int64
	Latitude  float64
	Longitude float64
	Metadata  []byte
}

// GroupMemberRow è un membro di un gruppo con i nomi disponibili
type GroupMemberRow struct {
	MemberJID   string
	SessionName string
	PushName    string
}

// ContactRow è una voce della tabella delle sessioni di chat
type ContactRow struct {
	JID  string
	Name string
}

// ContactReactionRow conta le reazioni ricevute per contatto
type ContactReactionRow struct {
	JID           string
	ReactionCount int
}
