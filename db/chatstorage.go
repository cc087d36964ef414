package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ChatStorage gestisce l'accesso in sola lettura a ChatStorage.sqlite.
// La connessione è aperta pigramente e riusata per tutta l'esportazione;
// non è sicura per uso concorrente.
type ChatStorage struct {
	path string
	conn *sql.DB
}

// NewChatStorage crea il gestore per il database indicato
func NewChatStorage(path string) *ChatStorage {
	return &ChatStorage{path: path}
}

// Path restituisce il percorso del database in uso
func (s *ChatStorage) Path() string {
	return s.path
}

// FindLocalDatabase cerca il database del client WhatsApp locale
func FindLocalDatabase() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("errore nella risoluzione della home: %v", err)
	}

	possiblePaths := []string{
		filepath.Join(home, "Library/Group Containers/group.net.whatsapp.WhatsApp.shared/ChatStorage.sqlite"),
		filepath.Join(home, "Library/Containers/net.whatsapp.WhatsApp/Data/Library/ChatStorage.sqlite"),
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("✅ Found database: %s\n", path)
			return path, nil
		}
	}

	return "", fmt.Errorf("❌ WhatsApp database not found")
}

// FindBackupDatabase cerca il database in un backup estratto da wtsexporter.
// I backup iOS salvano i file con nomi hash esadecimali di 40 caratteri:
// il candidato più grande è quasi sempre ChatStorage.
func FindBackupDatabase(basePath string) (string, error) {
	if basePath == "" {
		return "", fmt.Errorf("❌ Backup base path required for backup mode")
	}

	fmt.Println("🔍 Looking for wtsexporter database...")

	type candidate struct {
		name string
		path string
		size int64
	}
	var candidates []candidate

	entries, err := os.ReadDir(basePath)
	if err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || len(name) != 40 || strings.Contains(name, ".") || !isHexName(name) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			fullPath := filepath.Join(basePath, name)
			candidates = append(candidates, candidate{name, fullPath, info.Size()})
			fmt.Printf("   📱 Found candidate: %s (%d bytes)\n", name, info.Size())
		}
	}

	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].size > candidates[j].size
		})
		if len(candidates) > 1 {
			fmt.Printf("💡 Auto-selecting largest file: %s\n", candidates[0].name)
		}
		fmt.Printf("✅ Using database: %s (%d bytes)\n", candidates[0].name, candidates[0].size)
		return candidates[0].path, nil
	}

	// Fallback: struttura con ChatStorage.sqlite esplicito
	fmt.Println("⚠️ No 40-character files found, trying ChatStorage.sqlite...")
	possiblePaths := []string{
		filepath.Join(basePath, "ChatStorage.sqlite"),
		filepath.Join(basePath, "AppDomainGroup-group.net.whatsapp.WhatsApp.shared", "ChatStorage.sqlite"),
		filepath.Join(basePath, "result", "AppDomainGroup-group.net.whatsapp.WhatsApp.shared", "ChatStorage.sqlite"),
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("✅ Found backup database: %s\n", path)
			return path, nil
		}
	}

	return "", fmt.Errorf("❌ Backup database not found in %s", basePath)
}

func isHexName(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// db apre la connessione alla prima richiesta
func (s *ChatStorage) db() (*sql.DB, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.path))
	if err != nil {
		return nil, fmt.Errorf("errore nella connessione al database: %v", err)
	}
	// Una sola connessione, il database non supporta accesso concorrente
	conn.SetMaxOpenConns(1)
	s.conn = conn
	return s.conn, nil
}

// Close chiude la connessione se aperta
func (s *ChatStorage) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// ConversationRows recupera le righe di una conversazione ordinate per data.
// I tipi 6, 10 e 15 sono notifiche di sistema vuote e vengono esclusi.
func (s *ChatStorage) ConversationRows(contactJID string, limit int, recent bool) ([]MessageRow, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}

	direction := "ASC"
	if recent {
		direction = "DESC"
	}
	query := fmt.Sprintf(`
		SELECT
			m.Z_PK,
			m.ZMESSAGEDATE,
			m.ZTEXT,
			m.ZISFROMME,
			m.ZMESSAGETYPE,
			m.ZGROUPMEMBER,
			m.ZFROMJID,
			m.ZTOJID,
			m.ZCHATSESSION,
			m.ZPARENTMESSAGE,
			m.ZFLAGS,
			i.ZRECEIPTINFO,
			m.ZMEDIAITEM,
			mi.ZMEDIALOCALPATH,
			mi.ZTITLE,
			mi.ZFILESIZE,
			mi.ZLATITUDE,
			mi.ZLONGITUDE
		FROM ZWAMESSAGE m
		LEFT JOIN ZWAMESSAGEINFO i ON m.Z_PK = i.ZMESSAGE
		LEFT JOIN ZWAMEDIAITEM mi ON m.ZMEDIAITEM = mi.Z_PK
		WHERE (m.ZFROMJID = ? OR m.ZTOJID = ?)
		AND m.ZMESSAGETYPE NOT IN (6, 10, 15)
		ORDER BY m.ZMESSAGEDATE %s`, direction)
	args := []interface{}{contactJID, contactJID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("errore nella query dei messaggi: %v", err)
	}
	defer rows.Close()

	var result []MessageRow
	for rows.Next() {
		var (
			row         MessageRow
			date        sql.NullFloat64
			text        sql.NullString
			isFromMe    sql.NullInt64
			msgType     sql.NullInt64
			groupMember sql.NullInt64
			fromJID     sql.NullString
			toJID       sql.NullString
			chatSession sql.NullInt64
			parentID    sql.NullInt64
			flags       sql.NullInt64
			mediaItemID sql.NullInt64
			mediaPath   sql.NullString
			mediaTitle  sql.NullString
			mediaSize   sql.NullInt64
			mediaLat    sql.NullFloat64
			mediaLon    sql.NullFloat64
		)
		err := rows.Scan(&row.ID, &date, &text, &isFromMe, &msgType, &groupMember,
			&fromJID, &toJID, &chatSession, &parentID, &flags,
			&row.ReceiptInfo, &mediaItemID, &mediaPath, &mediaTitle, &mediaSize,
			&mediaLat, &mediaLon)
		if err != nil {
			// Una riga corrotta non interrompe il batch
			fmt.Printf("⚠️ Errore nello scan di una riga: %v\n", err)
			continue
		}
		row.MessageDate = date.Float64
		row.Text = text.String
		row.IsFromMe = isFromMe.Int64 == 1
		row.MessageType = int(msgType.Int64)
		row.GroupMemberID = groupMember.Int64
		row.FromJID = fromJID.String
		row.ToJID = toJID.String
		row.ChatSession = chatSession.Int64
		row.ParentMessageID = parentID.Int64
		row.Flags = flags.Int64
		row.MediaItemID = mediaItemID.Int64
		row.MediaLocalPath = mediaPath.String
		row.MediaTitle = mediaTitle.String
		row.MediaFileSize = mediaSize.Int64
		row.MediaLatitude = mediaLat.Float64
		row.MediaLongitude = mediaLon.Float64
		result = append(result, row)
	}
	return result, rows.Err()
}

// MediaItem recupera i dettagli completi di un media item
func (s *ChatStorage) MediaItem(mediaItemID int64) (*MediaItemRow, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}
	var (
		row       MediaItemRow
		localPath sql.NullString
		title     sql.NullString
		fileSize  sql.NullInt64
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
	)
	err = conn.QueryRow(`
		SELECT Z_PK, ZMEDIALOCALPATH, ZTITLE, ZFILESIZE, ZLATITUDE, ZLONGITUDE
		FROM ZWAMEDIAITEM WHERE Z_PK = ?`, mediaItemID).
		Scan(&row.ID, &localPath, &title, &fileSize, &latitude, &longitude)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.LocalPath = localPath.String
	row.Title = title.String
	row.FileSize = fileSize.Int64
	row.Latitude = latitude.Float64
	row.Longitude = longitude.Float64
	return &row, nil
}

// MediaItemForMessage recupera il media item associato a un messaggio
func (s *ChatStorage) MediaItemForMessage(messageID int64) (*MediaItemRow, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}
	var id int64
	err = conn.QueryRow("SELECT Z_PK FROM ZWAMEDIAITEM WHERE ZMESSAGE = ?", messageID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.MediaItem(id)
}

// MediaItemMetadata recupera il blob di metadati binari di un media item
func (s *ChatStorage) MediaItemMetadata(mediaItemID int64) ([]byte, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}
	var metadata []byte
	err = conn.QueryRow("SELECT ZMETADATA FROM ZWAMEDIAITEM WHERE Z_PK = ?", mediaItemID).Scan(&metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return metadata, nil
}

// MediaItemSummary recupera percorso e titolo di un media item citato
func (s *ChatStorage) MediaItemSummary(mediaItemID int64) (path string, title string, err error) {
	conn, err := s.db()
	if err != nil {
		return "", "", err
	}
	var localPath, mediaTitle sql.NullString
	err = conn.QueryRow("SELECT ZMEDIALOCALPATH, ZTITLE FROM ZWAMEDIAITEM WHERE Z_PK = ?", mediaItemID).
		Scan(&localPath, &mediaTitle)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return localPath.String, mediaTitle.String, nil
}

// ParentMediaItemID recupera il media item del messaggio padre, se presente
func (s *ChatStorage) ParentMediaItemID(parentMessageID int64) (int64, error) {
	conn, err := s.db()
	if err != nil {
		return 0, err
	}
	var mediaItemID sql.NullInt64
	err = conn.QueryRow("SELECT ZMEDIAITEM FROM ZWAMESSAGE WHERE Z_PK = ?", parentMessageID).Scan(&mediaItemID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return mediaItemID.Int64, nil
}

// SessionName recupera il nome salvato nella sessione di chat per un JID
func (s *ChatStorage) SessionName(jid string) (string, error) {
	conn, err := s.db()
	if err != nil {
		return "", err
	}
	var name sql.NullString
	err = conn.QueryRow("SELECT ZPARTNERNAME FROM ZWACHATSESSION WHERE ZCONTACTJID = ?", jid).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name.String, nil
}

// PushName recupera il push name del profilo per un JID
func (s *ChatStorage) PushName(jid string) (string, error) {
	conn, err := s.db()
	if err != nil {
		return "", err
	}
	var name sql.NullString
	err = conn.QueryRow("SELECT ZPUSHNAME FROM ZWAPROFILEPUSHNAME WHERE ZJID = ?", jid).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name.String, nil
}

// GroupMembers recupera i membri di un gruppo con i nomi disponibili
func (s *ChatStorage) GroupMembers(groupJID string) ([]GroupMemberRow, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(`
		SELECT DISTINCT gm.ZMEMBERJID, cs.ZPARTNERNAME, pn.ZPUSHNAME
		FROM ZWAGROUPMEMBER gm
		LEFT JOIN ZWACHATSESSION cs ON gm.ZMEMBERJID = cs.ZCONTACTJID
		LEFT JOIN ZWAPROFILEPUSHNAME pn ON gm.ZMEMBERJID = pn.ZJID
		LEFT JOIN ZWACHATSESSION gs ON gs.ZCONTACTJID = ?
		WHERE gm.ZCHATSESSION = gs.Z_PK`, groupJID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []GroupMemberRow
	for rows.Next() {
		var (
			member      GroupMemberRow
			jid         sql.NullString
			sessionName sql.NullString
			pushName    sql.NullString
		)
		if err := rows.Scan(&jid, &sessionName, &pushName); err != nil {
			continue
		}
		if jid.String == "" {
			continue
		}
		member.MemberJID = jid.String
		member.SessionName = sessionName.String
		member.PushName = pushName.String
		members = append(members, member)
	}
	return members, rows.Err()
}

// GroupMemberJID risolve l'identificatore numerico di un membro nel suo JID
func (s *ChatStorage) GroupMemberJID(groupJID string, memberID int64) (string, error) {
	conn, err := s.db()
	if err != nil {
		return "", err
	}
	var memberJID sql.NullString
	err = conn.QueryRow(`
		SELECT gm.ZMEMBERJID
		FROM ZWAGROUPMEMBER gm
		LEFT JOIN ZWACHATSESSION gs ON gs.ZCONTACTJID = ?
		WHERE gm.ZCHATSESSION = gs.Z_PK AND gm.Z_PK = ?`, groupJID, memberID).Scan(&memberJID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return memberJID.String, nil
}

// Contacts recupera tutti i contatti e gruppi con un nome
func (s *ChatStorage) Contacts() ([]ContactRow, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(`
		SELECT ZCONTACTJID, ZPARTNERNAME
		FROM ZWACHATSESSION
		WHERE ZCONTACTJID IS NOT NULL
		AND ZPARTNERNAME IS NOT NULL
		AND ZPARTNERNAME != ''
		ORDER BY ZPARTNERNAME`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []ContactRow
	for rows.Next() {
		var c ContactRow
		if err := rows.Scan(&c.JID, &c.Name); err != nil {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ContactsWithReactions recupera i contatti individuali ordinati per numero
// di reazioni ricevute. Il filtro sui blob usa i prefissi esadecimali delle
// emoji per scartare le ricevute senza reazione.
func (s *ChatStorage) ContactsWithReactions() ([]ContactReactionRow, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(`
		SELECT
			CASE WHEN m.ZISFROMME = 1 THEN m.ZTOJID ELSE m.ZFROMJID END as contact_jid,
			COUNT(*) as reaction_count
		FROM ZWAMESSAGE m
		JOIN ZWAMESSAGEINFO i ON m.Z_PK = i.ZMESSAGE
		WHERE m.ZMESSAGETYPE = 0
		AND i.ZRECEIPTINFO IS NOT NULL
		AND LENGTH(i.ZRECEIPTINFO) > 50
		AND (HEX(i.ZRECEIPTINFO) LIKE '%F09F%' OR HEX(i.ZRECEIPTINFO) LIKE '%E2%')
		AND (m.ZFROMJID LIKE '%@s.whatsapp.net' OR m.ZTOJID LIKE '%@s.whatsapp.net')
		GROUP BY contact_jid
		ORDER BY reaction_count DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []ContactReactionRow
	for rows.Next() {
		var (
			jid   sql.NullString
			count int
		)
		if err := rows.Scan(&jid, &count); err != nil {
			continue
		}
		if jid.String == "" {
			continue
		}
		contacts = append(contacts, ContactReactionRow{JID: jid.String, ReactionCount: count})
	}
	return contacts, rows.Err()
}

// FindContact cerca un contatto per nome o JID: prima match esatto, poi
// parziale scegliendo il contatto con più messaggi.
func (s *ChatStorage) FindContact(input string) (*ContactRow, error) {
	conn, err := s.db()
	if err != nil {
		return nil, err
	}

	var c ContactRow
	err = conn.QueryRow(`
		SELECT ZCONTACTJID, ZPARTNERNAME
		FROM ZWACHATSESSION
		WHERE ZPARTNERNAME = ? OR ZCONTACTJID = ?`, input, input).Scan(&c.JID, &c.Name)
	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	rows, err := conn.Query(`
		SELECT ZCONTACTJID, ZPARTNERNAME
		FROM ZWACHATSESSION
		WHERE ZPARTNERNAME LIKE ?
		ORDER BY ZPARTNERNAME`, "%"+input+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []ContactRow
	for rows.Next() {
		var m ContactRow
		if err := rows.Scan(&m.JID, &m.Name); err != nil {
			continue
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) == 1 {
		return &matches[0], nil
	}

	// Più contatti: preferisci quello con più messaggi
	fmt.Printf("🔍 Found %d contacts matching '%s':\n", len(matches), input)
	best := matches[0]
	bestCount := -1
	for _, m := range matches {
		count, err := s.MessageCount(m.JID)
		if err != nil {
			continue
		}
		fmt.Printf("   • %s (%d messages)\n", m.Name, count)
		if count > bestCount {
			best = m
			bestCount = count
		}
	}
	fmt.Printf("💡 Auto-selected: %s\n", best.Name)
	return &best, nil
}

// MessageCount conta i messaggi scambiati con un JID
func (s *ChatStorage) MessageCount(jid string) (int, error) {
	conn, err := s.db()
	if err != nil {
		return 0, err
	}
	var count int
	err = conn.QueryRow("SELECT COUNT(*) FROM ZWAMESSAGE WHERE ZFROMJID = ? OR ZTOJID = ?", jid, jid).Scan(&count)
	return count, err
}
