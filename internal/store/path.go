package store

// Collection names a document collection inside a family.
type Collection string

const (
	Children        Collection = "children"
	Tasks           Collection = "tasks"
	Rewards         Collection = "rewards"
	RedeemedRewards Collection = "redeemed_rewards"
	Notifications   Collection = "notifications"
)

// Path addresses a collection. ChildID is only meaningful for Tasks, where it
// narrows the collection to one child's tasks.
type Path struct {
	Collection Collection
	FamilyID   string
	ChildID    string
}

func (p Path) String() string {
	if p.Collection == Tasks && p.ChildID != "" {
		return "families/" + p.FamilyID + "/children/" + p.ChildID + "/tasks"
	}
	return "families/" + p.FamilyID + "/" + string(p.Collection)
}

func ChildrenPath(familyID string) Path {
	return Path{Collection: Children, FamilyID: familyID}
}

func TasksPath(familyID string) Path {
	return Path{Collection: Tasks, FamilyID: familyID}
}

func ChildTasksPath(familyID, childID string) Path {
	return Path{Collection: Tasks, FamilyID: familyID, ChildID: childID}
}

func RewardsPath(familyID string) Path {
	return Path{Collection: Rewards, FamilyID: familyID}
}

func RedemptionsPath(familyID string) Path {
	return Path{Collection: RedeemedRewards, FamilyID: familyID}
}

func NotificationsPath(familyID string) Path {
	return Path{Collection: Notifications, FamilyID: familyID}
}

// ParseCollection maps a client-supplied collection name to a Collection.
func ParseCollection(name string) (Collection, bool) {
	switch c := Collection(name); c {
	case Children, Tasks, Rewards, RedeemedRewards, Notifications:
		return c, true
	}
	return "", false
}

type pathSet struct {
	seen  map[string]bool
	paths []Path
}

func newPathSet() *pathSet {
	return &pathSet{seen: make(map[string]bool)}
}

func (s *pathSet) add(p Path) {
	key := p.String()
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.paths = append(s.paths, p)
}
