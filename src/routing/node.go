package routing

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/config"
	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/event"
	"github.com/sectornet/routing/src/net"
	"github.com/sectornet/routing/src/relocation"
	"github.com/sectornet/routing/src/section"
	"github.com/sectornet/routing/src/store"
	"github.com/sectornet/routing/src/xorname"
)

// eventChSize bounds the node's event channel. Events are dropped, with a
// warning, when the consumer falls this far behind.
const eventChSize = 100

// Node is a routing node. It keeps the node's view of its own section and of
// the remote sections it knows about, sends and relays messages between
// locations, and surfaces membership changes as events.
//
// Membership decisions are fed in through the Handle methods by whichever
// consensus layer sits on top; the node applies them to its local state and
// never decides them itself.
type Node struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	key  *ecdsa.PrivateKey
	name xorname.XorName
	age  uint8

	coreLock   sync.RWMutex
	section    *section.Section
	network    *section.Network
	sectionKey *ecdsa.PrivateKey

	trans net.Transport
	netCh <-chan net.RPC

	store    store.Store
	strategy relocation.Strategy
	filter   *filter

	eventCh    chan event.Event
	sigintCh   chan os.Signal
	shutdownCh chan struct{}

	start time.Time

	statsLock    sync.Mutex
	msgsSent     int
	msgsRelayed  int
	msgsDropped  int
	msgsReceived int
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *config.Config,
	trans net.Transport,
	st store.Store,
	strategy relocation.Strategy,
) *Node {
	name := xorname.FromContent(keys.PublicKeyOf(conf.Key).Bytes())

	//Prepare sigintCh to relay SIGINT system calls
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGINT)

	if strategy == nil {
		strategy = relocation.HashedDestination{}
	}

	node := Node{
		conf:       conf,
		logger:     conf.Logger().WithField("this_node", name.String()),
		key:        conf.Key,
		name:       name,
		age:        section.MinAge,
		network:    section.NewNetwork(),
		trans:      trans,
		netCh:      trans.Consumer(),
		store:      st,
		strategy:   strategy,
		filter:     newFilter(conf.CacheSize, conf.FilterTTL),
		eventCh:    make(chan event.Event, eventChSize),
		sigintCh:   sigintCh,
		shutdownCh: make(chan struct{}),
		start:      time.Now(),
	}

	return &node
}

// Init initialises the node. The first node of a network starts its own
// section; everyone else starts in the Joining state, recovering any section
// knowledge left in the store by a previous run.
func (n *Node) Init() error {
	if n.conf.First {
		n.logger.Debug("Starting genesis section")
		return n.startGenesis()
	}

	sap, err := n.store.GetAuthority()
	if err == nil {
		proof, cerr := n.store.GetChain()
		if cerr != nil {
			return cerr
		}
		n.logger.WithField("prefix", sap.Prefix().String()).Debug("Recovered section from store")
		n.coreLock.Lock()
		n.section = section.NewSection(sap, proof, nil)
		// A section secret is not persisted; it comes back only when this
		// node's own key still seals the section.
		if sap.SectionKey() == keys.PublicKeyOf(n.key) {
			n.sectionKey = n.key
		}
		n.coreLock.Unlock()
		n.setState(Active)
		return nil
	}
	if err != store.ErrNotFound {
		return err
	}

	n.logger.Debug("No section knowledge => Joining")
	n.setState(Joining)

	return nil
}

func (n *Node) startGenesis() error {
	n.age = section.MinAdultAge

	prefix := xorname.NewPrefix(0, xorname.XorName{})
	sap := section.NewSectionAuthorityProvider(
		prefix,
		keys.PublicKeyOf(n.key),
		map[xorname.XorName]string{n.name: n.trans.AdvertiseAddr()},
	)

	sec := section.NewSection(sap, chain.New(keys.PublicKeyOf(n.key)), nil)
	sec.AddMember(section.NewPeer(n.name, n.trans.AdvertiseAddr(), n.age))

	n.coreLock.Lock()
	n.section = sec
	// The genesis section key is the genesis node's own key.
	n.sectionKey = n.key
	n.coreLock.Unlock()

	n.setState(Active)

	return n.persist()
}

// Join adopts the section that admitted this node. The proof chain must end
// in the section key carried by the authority provider.
func (n *Node) Join(sap *section.SectionAuthorityProvider, proof *chain.SectionChain) error {
	if n.getState() == Shutdown {
		return ErrInvalidState
	}
	if !sap.Prefix().Matches(n.name) {
		return ErrInvalidState
	}
	if !proof.SelfVerify() || !proof.HasKey(sap.SectionKey()) {
		return ErrInvalidMessage
	}

	n.logger.WithField("prefix", sap.Prefix().String()).Debug("Joining section")

	n.coreLock.Lock()
	sec := section.NewSection(sap, proof, nil)
	sec.AddMember(section.NewPeer(n.name, n.trans.AdvertiseAddr(), n.age))
	n.section = sec
	n.sectionKey = nil
	n.coreLock.Unlock()

	n.setState(Active)

	return n.persist()
}

// RunAsync calls Run as a separate thread
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")

	go n.Run()
}

// Run invokes the main loop of the node
func (n *Node) Run() {
	n.trans.Listen()

	for {
		switch n.getState() {
		case Shutdown:
			return
		default:
			n.doBackgroundWork()
		}
	}
}

func (n *Node) doBackgroundWork() {
	for {
		select {
		case rpc := <-n.netCh:
			n.goFunc(func() {
				n.logger.Debug("Processing RPC")
				n.processRPC(rpc)
			})
		case <-n.sigintCh:
			n.logger.Debug("Reacting to SIGINT - SHUTDOWN")
			go n.Shutdown()
		case <-n.shutdownCh:
			return
		}
	}
}

// Events returns the channel on which the node surfaces what happened to it.
func (n *Node) Events() <-chan event.Event {
	return n.eventCh
}

func (n *Node) emit(ev event.Event) {
	select {
	case n.eventCh <- ev:
	default:
		n.logger.WithField("event", fmt.Sprintf("%T", ev)).Warn("Event channel full, dropping event")
	}
}

/*******************************************************************************
Message sending and relay
*******************************************************************************/

// SendMessage signs content into an envelope from src and routes it towards
// dst. It returns ErrCannotRoute synchronously when the node knows of no
// section to route through; actual delivery is best effort and asynchronous.
func (n *Node) SendMessage(src SrcLocation, dst DstLocation, content []byte) error {
	if n.getState() == Shutdown {
		return ErrInvalidState
	}
	if !src.valid() {
		return ErrInvalidSrcLocation
	}
	if !dst.valid() {
		return ErrInvalidDstLocation
	}

	// Section authority is asserted with the section key, not the node key.
	// Receivers only trust a section envelope signed by the last key of its
	// proof chain.
	signer := n.key
	var proof *chain.SectionChain
	if src.Kind == LocationSection {
		sec, secret := n.ourSectionKey()
		if sec == nil || secret == nil {
			return ErrInvalidState
		}
		c := sec.Chain()
		p, err := c.Minimize([]keys.PublicKey{keys.PublicKeyOf(secret)})
		if err != nil {
			return err
		}
		proof = p
		signer = secret
	}

	msg, err := NewMessage(signer, src, dst, content, proof)
	if err != nil {
		return err
	}

	// The sender never handles its own envelope again on the way back in.
	hash, err := msg.Hash()
	if err != nil {
		return err
	}
	n.filter.duplicate(hash)

	recipients, local, err := n.recipients(msg.Dst)
	if err != nil {
		return err
	}

	// The sender can itself sit in the delivery group.
	if local {
		n.emit(event.MessageReceived{
			Content: msg.Content,
			Src:     msg.Src.Name,
			Dst:     msg.Dst.Name,
		})
	}

	n.send(msg, recipients)

	return nil
}

// recipients resolves a destination into transport addresses, and reports
// whether the destination also covers this node.
func (n *Node) recipients(dst DstLocation) ([]string, bool, error) {
	if dst.Kind == LocationDirect {
		return []string{dst.Addr}, false, nil
	}

	n.coreLock.RLock()
	defer n.coreLock.RUnlock()

	if dst.Kind == LocationNode && dst.Name == n.name {
		return nil, true, nil
	}

	if n.section != nil && n.section.Authority().Prefix().Matches(dst.Name) {
		sap := n.section.Authority()
		switch dst.Kind {
		case LocationNode:
			if member, ok := n.section.Member(dst.Name); ok && member.State == section.StateJoined {
				return []string{member.Peer.Addr()}, false, nil
			}
			return nil, false, ErrCannotRoute
		case LocationSection:
			local := false
			var addrs []string
			for _, name := range deliveryGroup(sap, dst.Name) {
				if name == n.name {
					local = true
					continue
				}
				addr, _ := sap.Addr(name)
				addrs = append(addrs, addr)
			}
			return addrs, local, nil
		}
	}

	sap, ok := n.network.Closest(dst.Name)
	if !ok {
		return nil, false, ErrCannotRoute
	}

	var addrs []string
	for _, name := range deliveryGroup(sap, dst.Name) {
		addr, _ := sap.Addr(name)
		addrs = append(addrs, addr)
	}
	return addrs, false, nil
}

// deliveryGroup returns the elders responsible for a name: the quorum of them
// closest to it in xor space.
func deliveryGroup(sap *section.SectionAuthorityProvider, target xorname.XorName) []xorname.XorName {
	names := sap.ElderNames()
	sort.Slice(names, func(i, j int) bool {
		return xorname.CmpDistance(names[i], names[j], target) < 0
	})
	if q := sap.Quorum(); len(names) > q {
		names = names[:q]
	}
	return names
}

func (n *Node) send(msg *Message, recipients []string) {
	payload, err := msg.Marshal()
	if err != nil {
		n.logger.WithError(err).Error("Encoding message")
		return
	}

	for _, addr := range recipients {
		addr := addr
		n.goFunc(func() {
			args := net.MessageRequest{From: n.trans.AdvertiseAddr(), Payload: payload}
			var resp net.MessageResponse

			err := n.trans.Message(addr, &args, &resp)
			if err != nil {
				n.logger.WithFields(logrus.Fields{
					"target": addr,
					"error":  err,
				}).Warn("Sending message")
				if msg.Dst.Kind == LocationDirect {
					n.emit(event.ClientLost{Addr: addr})
				}
				return
			}

			n.statsLock.Lock()
			n.msgsSent++
			n.statsLock.Unlock()
		})
	}
}

func (n *Node) processRPC(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.MessageRequest:
		n.processMessageRequest(rpc, cmd)
	default:
		n.logger.WithField("cmd", rpc.Command).Error("Unexpected RPC command")
		rpc.Respond(nil, ErrInvalidMessage)
	}
}

func (n *Node) processMessageRequest(rpc net.RPC, cmd *net.MessageRequest) {
	resp := &net.MessageResponse{From: n.trans.AdvertiseAddr()}

	msg, err := Unmarshal(cmd.Payload)
	if err != nil {
		n.logger.WithError(err).Warn("Decoding message")
		rpc.Respond(resp, err)
		return
	}

	// Duplicates are acknowledged and dropped so relays don't loop.
	hash, err := msg.Hash()
	if err != nil {
		rpc.Respond(resp, err)
		return
	}
	if n.filter.duplicate(hash) {
		resp.Success = true
		rpc.Respond(resp, nil)
		return
	}

	if !msg.VerifySignature() {
		n.logger.WithField("src", msg.Src.String()).Warn("Invalid message signature")
		n.dropped()
		rpc.Respond(resp, ErrInvalidMessage)
		return
	}

	if status := n.checkTrust(msg); status != chain.Trusted {
		n.logger.WithField("src", msg.Src.String()).Warn("Untrusted message")
		n.dropped()
		rpc.Respond(resp, chain.NewChainErr(chain.ErrUntrusted, msg.SenderKey.String()))
		return
	}

	resp.Success = true
	rpc.Respond(resp, nil)

	n.handleMessage(msg)
}

func (n *Node) checkTrust(msg *Message) chain.TrustStatus {
	sec := n.ourSection()
	if sec == nil {
		// A joining node has no trust anchor yet and accepts what it is sent.
		return chain.Trusted
	}
	return msg.CheckTrust(sec.Chain().Keys())
}

func (n *Node) handleMessage(msg *Message) {
	recipients, local, err := n.recipients(msg.Dst)
	if err != nil {
		n.logger.WithFields(logrus.Fields{
			"dst":   msg.Dst.String(),
			"error": err,
		}).Warn("Cannot route message")
		n.dropped()
		return
	}

	if local || msg.Dst.Kind == LocationDirect {
		n.statsLock.Lock()
		n.msgsReceived++
		n.statsLock.Unlock()

		if msg.Src.Kind == LocationDirect {
			n.emit(event.ClientMessageReceived{Content: msg.Content, Src: msg.Src.Addr})
		} else {
			n.emit(event.MessageReceived{
				Content: msg.Content,
				Src:     msg.Src.Name,
				Dst:     msg.Dst.Name,
			})
		}
	}

	if msg.Dst.Kind == LocationDirect {
		return
	}

	if len(recipients) > 0 {
		n.statsLock.Lock()
		n.msgsRelayed++
		n.statsLock.Unlock()
		n.send(msg, recipients)
	}

	n.logStats()
}

func (n *Node) dropped() {
	n.statsLock.Lock()
	n.msgsDropped++
	n.statsLock.Unlock()
}

/*******************************************************************************
Membership handlers
*******************************************************************************/

// HandleMemberJoined records a peer admitted into our section.
func (n *Node) HandleMemberJoined(peer section.Peer, previousName *xorname.XorName) error {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	if n.section == nil {
		return ErrInvalidState
	}
	if !n.section.AddMember(peer) {
		return ErrInvalidState
	}

	n.logger.WithFields(logrus.Fields{
		"name": peer.Name().String(),
		"age":  peer.Age(),
	}).Debug("Member joined")

	ev := event.MemberJoined{Name: peer.Name(), Age: peer.Age()}
	if previousName != nil {
		ev.PreviousName = *previousName
	}
	n.emit(ev)

	return nil
}

// HandleMemberLeft records a peer leaving our section, voluntarily or not.
func (n *Node) HandleMemberLeft(name xorname.XorName) error {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	if n.section == nil {
		return ErrInvalidState
	}
	info, ok := n.section.RemoveMember(name)
	if !ok {
		return ErrInvalidState
	}

	n.logger.WithField("name", name.String()).Debug("Member left")

	n.emit(event.MemberLeft{Name: name, Age: info.Peer.Age()})

	return nil
}

// HandleEldersChanged applies a new elder set and the section key that seals
// it. The new key must be signed by the current section key; the proof chain
// grows by one block. Elders receive the secret half of the new section key
// from the consensus layer so they can speak with section authority; everyone
// else passes nil and loses any secret they held.
func (n *Node) HandleEldersChanged(sap *section.SectionAuthorityProvider, sig keys.Signature, secret *ecdsa.PrivateKey) error {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	if n.section == nil {
		return ErrInvalidState
	}
	if sap.Prefix() != n.section.Authority().Prefix() {
		return ErrInvalidState
	}

	prev := n.section.Authority()
	newKey := sap.SectionKey()

	if secret != nil && keys.PublicKeyOf(secret) != newKey {
		return ErrInvalidState
	}

	if err := n.section.Chain().Insert(prev.SectionKey(), newKey, sig); err != nil {
		return err
	}
	n.section.SetAuthority(sap)
	n.sectionKey = secret

	change := section.SelfStatusChange(prev, sap, n.name)

	n.logger.WithFields(logrus.Fields{
		"prefix": sap.Prefix().String(),
		"key":    newKey.String(),
		"self":   change.String(),
	}).Debug("Elders changed")

	n.emit(event.EldersChanged{
		Prefix:           sap.Prefix(),
		Key:              newKey,
		Elders:           sap.ElderNames(),
		SelfStatusChange: change,
	})

	return n.persistLocked()
}

// HandleSectionSplit applies a section split. Both sibling authority
// providers are installed at once: ours replaces the section's authority,
// the sibling's goes into the network knowledge. The proof chain forks, with
// both new keys signed by the pre-split key. As with HandleEldersChanged,
// secret is the secret half of our side's new section key, nil for
// non-elders.
func (n *Node) HandleSectionSplit(zero, one *section.SectionAuthorityProvider, sigZero, sigOne keys.Signature, secret *ecdsa.PrivateKey) error {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	if n.section == nil {
		return ErrInvalidState
	}

	prev := n.section.Authority()
	if !zero.Prefix().IsExtensionOf(prev.Prefix()) || !one.Prefix().IsExtensionOf(prev.Prefix()) {
		return ErrInvalidState
	}

	ours, sibling := zero, one
	if !ours.Prefix().Matches(n.name) {
		ours, sibling = one, zero
	}

	if secret != nil && keys.PublicKeyOf(secret) != ours.SectionKey() {
		return ErrInvalidState
	}

	c := n.section.Chain()
	if err := c.Insert(prev.SectionKey(), zero.SectionKey(), sigZero); err != nil {
		return err
	}
	if err := c.Insert(prev.SectionKey(), one.SectionKey(), sigOne); err != nil {
		return err
	}

	// Members on the other side of the split stay reachable through the
	// sibling's authority but are no longer our section's business.
	siblingNames := []xorname.XorName{}
	for _, m := range n.section.Joined() {
		if !ours.Prefix().Matches(m.Peer.Name()) {
			siblingNames = append(siblingNames, m.Peer.Name())
		}
	}
	for _, name := range siblingNames {
		n.section.RemoveMember(name)
	}

	n.section.SetAuthority(ours)
	n.sectionKey = secret
	n.network.Insert(sibling)

	n.logger.WithFields(logrus.Fields{
		"prefix":  ours.Prefix().String(),
		"sibling": sibling.Prefix().String(),
	}).Debug("Section split")

	n.emit(event.SectionSplit{
		Elders:        ours,
		SiblingElders: sibling,
		SelfPrefix:    ours.Prefix(),
	})

	return n.persistLocked()
}

// HandleSectionKnowledge records what we learned about a remote section.
func (n *Node) HandleSectionKnowledge(sap *section.SectionAuthorityProvider) error {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	if n.section != nil && sap.Prefix() == n.section.Authority().Prefix() {
		return ErrInvalidState
	}

	n.network.Insert(sap)

	n.logger.WithField("prefix", sap.Prefix().String()).Debug("Learned section")

	return nil
}

/*******************************************************************************
Relocation
*******************************************************************************/

// RelocateMember computes and applies the relocation of a section member,
// triggered by the churn of trigger. It returns the signed details to forward
// to the member and its destination section.
func (n *Node) RelocateMember(name, trigger xorname.XorName) (relocation.SignedDetails, error) {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	if n.section == nil || n.sectionKey == nil {
		return relocation.SignedDetails{}, ErrInvalidState
	}
	member, ok := n.section.Member(name)
	if !ok {
		return relocation.SignedDetails{}, ErrInvalidState
	}

	details := relocation.Compute(n.strategy, name, trigger, member.Peer.Age())

	// The order is signed with the section key; its minimized chain is what
	// the destination section verifies the signature against.
	c := n.section.Chain()
	proof, err := c.Minimize([]keys.PublicKey{keys.PublicKeyOf(n.sectionKey)})
	if err != nil {
		return relocation.SignedDetails{}, err
	}

	secret := n.sectionKey
	signed, err := relocation.NewSignedDetails(details, proof, func(data []byte) (keys.Signature, error) {
		return keys.Sign(secret, data)
	})
	if err != nil {
		return relocation.SignedDetails{}, err
	}

	n.section.RelocateMember(name, details.Destination)

	n.logger.WithFields(logrus.Fields{
		"name": name.String(),
		"dst":  details.Destination.String(),
		"age":  details.Age,
	}).Debug("Relocating member")

	return signed, nil
}

// HandleRelocation reacts to a relocation decision that names this node. The
// node drains, generates a fresh keypair for its next incarnation, and asks
// to be restarted.
func (n *Node) HandleRelocation(details relocation.SignedDetails) error {
	if details.Details.Name != n.name {
		return ErrInvalidState
	}
	if !details.Verify() {
		return ErrInvalidMessage
	}

	n.logger.WithFields(logrus.Fields{
		"dst": details.Details.Destination.String(),
		"age": details.Details.Age,
	}).Debug("RELOCATING")

	n.setState(Relocating)
	n.emit(event.RelocationStarted{PreviousName: n.name})

	newKey, err := keys.GenerateKey()
	if err != nil {
		return err
	}

	n.coreLock.Lock()
	n.age = details.Details.Age
	n.coreLock.Unlock()

	n.emit(event.Relocated{PreviousName: n.name, NewKeypair: newKey})
	n.emit(event.RestartRequired{})

	return nil
}

/*******************************************************************************
Queries
*******************************************************************************/

// Name returns the node's name, derived from its public key.
func (n *Node) Name() xorname.XorName {
	return n.name
}

// Age returns the node's age.
func (n *Node) Age() uint8 {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section != nil {
		if m, ok := n.section.Member(n.name); ok {
			return m.Peer.Age()
		}
	}
	return n.age
}

// PublicKey returns the node's public key.
func (n *Node) PublicKey() keys.PublicKey {
	return keys.PublicKeyOf(n.key)
}

// IsElder reports whether this node sits in its section's authority provider.
func (n *Node) IsElder() bool {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return false
	}
	return n.section.Authority().Contains(n.name)
}

// OurPrefix returns the prefix of the node's section.
func (n *Node) OurPrefix() (xorname.Prefix, error) {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return xorname.Prefix{}, ErrInvalidState
	}
	return n.section.Authority().Prefix(), nil
}

// OurSection returns the authority provider of the node's section.
func (n *Node) OurSection() (*section.SectionAuthorityProvider, error) {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return nil, ErrInvalidState
	}
	return n.section.Authority(), nil
}

// OurElders returns the names of the section's elders.
func (n *Node) OurElders() []xorname.XorName {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return nil
	}
	return n.section.Authority().ElderNames()
}

// OurEldersSortedByDistanceTo returns the section's elders sorted by xor
// distance to name, closest first.
func (n *Node) OurEldersSortedByDistanceTo(name xorname.XorName) []xorname.XorName {
	elders := n.OurElders()
	sort.Slice(elders, func(i, j int) bool {
		return xorname.CmpDistance(elders[i], elders[j], name) < 0
	})
	return elders
}

// RoleOf returns the role of a section member.
func (n *Node) RoleOf(name xorname.XorName) section.Role {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return section.Infant
	}
	return n.section.RoleOf(name)
}

// ElderCandidates returns what the configured elder set becomes after the
// next elder change: the section's ranking of its adults, capped at the
// configured elder count.
func (n *Node) ElderCandidates() []section.MemberInfo {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return nil
	}
	return n.section.ElderCandidates(n.conf.ElderSize)
}

// SplitRecommended reports whether both halves of a split would hold enough
// adults for the configured section size.
func (n *Node) SplitRecommended() bool {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return false
	}
	return n.section.SplitThresholdMet(n.conf.RecommendedSectionSize)
}

// OurAdults returns the section members old enough to count, elders included.
func (n *Node) OurAdults() []section.MemberInfo {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return nil
	}
	return n.section.Adults()
}

// OurMembers returns all current members of the section.
func (n *Node) OurMembers() []section.MemberInfo {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return nil
	}
	return n.section.Joined()
}

// MatchingSection returns the authority provider responsible for name, from
// our own section or from network knowledge.
func (n *Node) MatchingSection(name xorname.XorName) (*section.SectionAuthorityProvider, error) {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section != nil && n.section.Authority().Prefix().Matches(name) {
		return n.section.Authority(), nil
	}
	if sap, ok := n.network.Matching(name); ok {
		return sap, nil
	}
	return nil, ErrCannotRoute
}

// NeighbourSections returns the known sections whose prefix differs from
// ours in exactly one bit.
func (n *Node) NeighbourSections() []*section.SectionAuthorityProvider {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return nil
	}
	return n.network.Neighbours(n.section.Authority().Prefix())
}

// SectionChain returns a self-contained copy of the section's proof chain.
func (n *Node) SectionChain() (*chain.SectionChain, error) {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	if n.section == nil {
		return nil, ErrInvalidState
	}
	c := n.section.Chain()
	return c.Minimize(c.Keys())
}

// Sign signs data with the node's key.
func (n *Node) Sign(data []byte) (keys.Signature, error) {
	return keys.Sign(n.key, data)
}

// Verify checks a signature made by this node.
func (n *Node) Verify(data []byte, sig keys.Signature) bool {
	return keys.PublicKeyOf(n.key).Verify(data, sig)
}

func (n *Node) ourSection() *section.Section {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	return n.section
}

func (n *Node) ourSectionKey() (*section.Section, *ecdsa.PrivateKey) {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	return n.section, n.sectionKey
}

func (n *Node) persist() error {
	n.coreLock.RLock()
	defer n.coreLock.RUnlock()
	return n.persistLocked()
}

func (n *Node) persistLocked() error {
	if n.section == nil {
		return nil
	}
	if err := n.store.SetAuthority(n.section.Authority()); err != nil {
		return err
	}
	return n.store.SetChain(n.section.Chain())
}

/*******************************************************************************
Shutdown and stats
*******************************************************************************/

// Shutdown shuts down the node
func (n *Node) Shutdown() {
	if n.getState() != Shutdown {
		n.logger.Debug("Shutdown")

		//Exit any non-shutdown state immediately
		n.setState(Shutdown)

		//Stop and wait for concurrent operations
		close(n.shutdownCh)

		n.waitRoutines()

		//transport and store should only be closed once all concurrent
		//operations are finished otherwise they will panic trying to use
		//closed objects
		n.trans.Close()

		n.filter.close()

		n.store.Close()
	}
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	n.coreLock.RLock()
	prefix := "-"
	sectionSize := 0
	elders := 0
	adults := 0
	if n.section != nil {
		prefix = n.section.Authority().Prefix().String()
		sectionSize = len(n.section.Joined())
		elders = n.section.Authority().Len()
		adults = len(n.section.Adults())
	}
	networkSections := n.network.Len()
	n.coreLock.RUnlock()

	n.statsLock.Lock()
	sent := n.msgsSent
	relayed := n.msgsRelayed
	received := n.msgsReceived
	dropped := n.msgsDropped
	n.statsLock.Unlock()

	timeElapsed := time.Since(n.start)

	s := map[string]string{
		"name":             n.name.Hex(),
		"prefix":           prefix,
		"age":              strconv.Itoa(int(n.Age())),
		"section_size":     strconv.Itoa(sectionSize),
		"elders":           strconv.Itoa(elders),
		"adults":           strconv.Itoa(adults),
		"network_sections": strconv.Itoa(networkSections),
		"msgs_sent":        strconv.Itoa(sent),
		"msgs_relayed":     strconv.Itoa(relayed),
		"msgs_received":    strconv.Itoa(received),
		"msgs_dropped":     strconv.Itoa(dropped),
		"uptime":           timeElapsed.String(),
		"state":            n.getState().String(),
		"moniker":          n.conf.Moniker,
	}
	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"prefix":           stats["prefix"],
		"section_size":     stats["section_size"],
		"elders":           stats["elders"],
		"adults":           stats["adults"],
		"network_sections": stats["network_sections"],
		"msgs_sent":        stats["msgs_sent"],
		"msgs_relayed":     stats["msgs_relayed"],
		"msgs_received":    stats["msgs_received"],
		"msgs_dropped":     stats["msgs_dropped"],
		"state":            stats["state"],
		"moniker":          stats["moniker"],
	}).Debug("Stats")
}
