package routing

import (
	"bytes"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/sectornet/routing/src/chain"
	"github.com/sectornet/routing/src/common"
	"github.com/sectornet/routing/src/config"
	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/event"
	"github.com/sectornet/routing/src/net"
	"github.com/sectornet/routing/src/relocation"
	"github.com/sectornet/routing/src/section"
	"github.com/sectornet/routing/src/store"
	"github.com/sectornet/routing/src/xorname"
)

func newTestNode(t *testing.T, first bool) (*Node, *net.InmemTransport) {
	t.Helper()

	key, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	conf := config.NewDefaultConfig()
	conf.Key = key
	conf.First = first
	conf.Moniker = "test"
	conf.WithLogger(common.NewTestLogger(t))

	_, trans := net.NewInmemTransport("")

	n := NewNode(conf, trans, store.NewInmemStore(), nil)
	if err := n.Init(); err != nil {
		t.Fatal(err)
	}
	return n, trans
}

func expectEvent(t *testing.T, n *Node, timeout time.Duration) event.Event {
	t.Helper()
	select {
	case ev := <-n.Events():
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func drainEvents(n *Node) {
	for {
		select {
		case <-n.Events():
		default:
			return
		}
	}
}

func TestGenesisNode(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	if n.getState() != Active {
		t.Fatalf("state: got %v, want Active", n.getState())
	}

	prefix, err := n.OurPrefix()
	if err != nil {
		t.Fatal(err)
	}
	if prefix.BitCount() != 0 {
		t.Fatalf("genesis prefix should be empty, got %s", prefix)
	}

	if !n.IsElder() {
		t.Fatalf("genesis node should be an elder")
	}

	sap, err := n.OurSection()
	if err != nil {
		t.Fatal(err)
	}
	if sap.Len() != 1 {
		t.Fatalf("genesis section should have one elder, got %d", sap.Len())
	}

	if n.Age() != section.MinAdultAge {
		t.Fatalf("genesis age: got %d, want %d", n.Age(), section.MinAdultAge)
	}
}

func TestJoiningNodeHasNoSection(t *testing.T) {
	n, _ := newTestNode(t, false)
	defer n.Shutdown()

	if n.getState() != Joining {
		t.Fatalf("state: got %v, want Joining", n.getState())
	}

	if _, err := n.OurPrefix(); err != ErrInvalidState {
		t.Fatalf("OurPrefix: got %v, want ErrInvalidState", err)
	}

	err := n.SendMessage(NodeSrc(n.Name()), SectionDst(xorname.XorName{0xff}), []byte("hi"))
	if err != ErrInvalidState && err != ErrCannotRoute {
		t.Fatalf("SendMessage without a section: got %v", err)
	}
}

func TestSendMessageValidation(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	err := n.SendMessage(SrcLocation{Kind: LocationKind(42)}, NodeDst(n.Name()), []byte("x"))
	if err != ErrInvalidSrcLocation {
		t.Fatalf("bad src: got %v, want ErrInvalidSrcLocation", err)
	}

	err = n.SendMessage(NodeSrc(n.Name()), DstLocation{Kind: LocationDirect}, []byte("x"))
	if err != ErrInvalidDstLocation {
		t.Fatalf("bad dst: got %v, want ErrInvalidDstLocation", err)
	}
}

func TestSendMessageCannotRoute(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	// The genesis prefix matches every name, so an unknown member of our
	// own section is the unroutable case.
	unknown := xorname.FromContent([]byte("nobody"))
	err := n.SendMessage(NodeSrc(n.Name()), NodeDst(unknown), []byte("hi"))
	if err != ErrCannotRoute {
		t.Fatalf("unknown member: got %v, want ErrCannotRoute", err)
	}
}

func TestMessageDelivery(t *testing.T) {
	a, aTrans := newTestNode(t, true)
	defer a.Shutdown()

	b, bTrans := newTestNode(t, false)
	defer b.Shutdown()

	aTrans.Connect(bTrans.LocalAddr(), bTrans)
	bTrans.Connect(aTrans.LocalAddr(), aTrans)

	// b joins a's section.
	sap, err := a.OurSection()
	if err != nil {
		t.Fatal(err)
	}
	proof, err := a.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Join(sap, proof); err != nil {
		t.Fatal(err)
	}

	peer := section.NewPeer(b.Name(), bTrans.LocalAddr(), section.MinAge)
	if err := a.HandleMemberJoined(peer, nil); err != nil {
		t.Fatal(err)
	}
	drainEvents(a)

	b.RunAsync()

	content := []byte("hello over there")
	if err := a.SendMessage(NodeSrc(a.Name()), NodeDst(b.Name()), content); err != nil {
		t.Fatal(err)
	}

	ev := expectEvent(t, b, 2*time.Second)
	got, ok := ev.(event.MessageReceived)
	if !ok {
		t.Fatalf("event: got %T, want MessageReceived", ev)
	}
	if !bytes.Equal(got.Content, content) {
		t.Fatalf("content: got %q, want %q", got.Content, content)
	}
	if got.Src != a.Name() {
		t.Fatalf("src: got %s, want %s", got.Src, a.Name())
	}
}

func TestSectionSourcedMessageDelivery(t *testing.T) {
	a, aTrans := newTestNode(t, true)
	defer a.Shutdown()

	b, bTrans := newTestNode(t, false)
	defer b.Shutdown()

	aTrans.Connect(bTrans.LocalAddr(), bTrans)
	bTrans.Connect(aTrans.LocalAddr(), aTrans)

	sap, err := a.OurSection()
	if err != nil {
		t.Fatal(err)
	}
	proof, err := a.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Join(sap, proof); err != nil {
		t.Fatal(err)
	}
	peer := section.NewPeer(b.Name(), bTrans.LocalAddr(), section.MinAge)
	if err := a.HandleMemberJoined(peer, nil); err != nil {
		t.Fatal(err)
	}
	drainEvents(a)

	b.RunAsync()

	// The genesis section key is a's own key.
	if err := a.SendMessage(SectionSrc(a.Name()), NodeDst(b.Name()), []byte("sealed")); err != nil {
		t.Fatal(err)
	}
	ev := expectEvent(t, b, 2*time.Second)
	if _, ok := ev.(event.MessageReceived); !ok {
		t.Fatalf("event: got %T, want MessageReceived", ev)
	}

	// Rotate the section key. a now signs with the new secret; b never saw
	// the rotation and trusts through the proof chain alone.
	newPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	newKey := keys.PublicKeyOf(newPriv)
	sig, err := a.Sign(newKey[:])
	if err != nil {
		t.Fatal(err)
	}
	sap2 := section.NewSectionAuthorityProvider(
		sap.Prefix(),
		newKey,
		map[xorname.XorName]string{a.Name(): aTrans.LocalAddr()},
	)
	if err := a.HandleEldersChanged(sap2, sig, newPriv); err != nil {
		t.Fatal(err)
	}
	drainEvents(a)

	content := []byte("sealed again")
	if err := a.SendMessage(SectionSrc(a.Name()), NodeDst(b.Name()), content); err != nil {
		t.Fatal(err)
	}
	ev = expectEvent(t, b, 2*time.Second)
	got, ok := ev.(event.MessageReceived)
	if !ok {
		t.Fatalf("event: got %T, want MessageReceived", ev)
	}
	if !bytes.Equal(got.Content, content) {
		t.Fatalf("content: got %q, want %q", got.Content, content)
	}
}

func TestForgedSectionMessageRejected(t *testing.T) {
	a, aTrans := newTestNode(t, true)
	defer a.Shutdown()

	b, bTrans := newTestNode(t, false)
	defer b.Shutdown()

	bTrans.Connect(aTrans.LocalAddr(), aTrans)

	// b needs a trust anchor; joining nodes accept anything.
	sap, err := a.OurSection()
	if err != nil {
		t.Fatal(err)
	}
	proof, err := a.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Join(sap, proof); err != nil {
		t.Fatal(err)
	}

	b.RunAsync()

	// Proof chains are public. A fresh key signing an envelope over the
	// section's genuine chain asserts authority it does not have.
	attacker, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	forged, err := NewMessage(attacker, SectionSrc(a.Name()), NodeDst(b.Name()), []byte("seize"), proof)
	if err != nil {
		t.Fatal(err)
	}
	if !forged.VerifySignature() {
		t.Fatalf("the forged envelope is well formed on its own")
	}
	payload, err := forged.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	_, attackerTrans := net.NewInmemTransport("")
	defer attackerTrans.Close()
	attackerTrans.Connect(bTrans.LocalAddr(), bTrans)

	args := net.MessageRequest{From: attackerTrans.LocalAddr(), Payload: payload}
	var resp net.MessageResponse
	err = attackerTrans.Message(bTrans.LocalAddr(), &args, &resp)
	if !chain.Is(err, chain.ErrUntrusted) {
		t.Fatalf("forged section message: got %v, want ErrUntrusted", err)
	}

	select {
	case ev := <-b.Events():
		t.Fatalf("forged message surfaced event %T", ev)
	default:
	}
}

func TestClientMessage(t *testing.T) {
	a, aTrans := newTestNode(t, true)
	defer a.Shutdown()

	b, bTrans := newTestNode(t, false)
	defer b.Shutdown()

	bTrans.Connect(aTrans.LocalAddr(), aTrans)

	a.RunAsync()

	// b acts as a client, outside any section.
	err := b.SendMessage(DirectSrc(bTrans.LocalAddr()), DirectDst(aTrans.LocalAddr()), []byte("query"))
	if err != nil {
		t.Fatal(err)
	}

	ev := expectEvent(t, a, 2*time.Second)
	got, ok := ev.(event.ClientMessageReceived)
	if !ok {
		t.Fatalf("event: got %T, want ClientMessageReceived", ev)
	}
	if got.Src != bTrans.LocalAddr() {
		t.Fatalf("client addr: got %s, want %s", got.Src, bTrans.LocalAddr())
	}
}

func TestHandleEldersChanged(t *testing.T) {
	n, trans := newTestNode(t, true)
	defer n.Shutdown()
	drainEvents(n)

	adult := section.NewPeer(xorname.FromContent([]byte("adult")), "addr1", section.MinAdultAge)
	if err := n.HandleMemberJoined(adult, nil); err != nil {
		t.Fatal(err)
	}
	drainEvents(n)

	prevSAP, err := n.OurSection()
	if err != nil {
		t.Fatal(err)
	}

	newPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	newKey := keys.PublicKeyOf(newPriv)

	sig, err := n.Sign(newKey[:])
	if err != nil {
		t.Fatal(err)
	}

	sap := section.NewSectionAuthorityProvider(
		prevSAP.Prefix(),
		newKey,
		map[xorname.XorName]string{
			n.Name():     trans.LocalAddr(),
			adult.Name(): adult.Addr(),
		},
	)

	if err := n.HandleEldersChanged(sap, sig, newPriv); err != nil {
		t.Fatal(err)
	}

	ev := expectEvent(t, n, time.Second)
	got, ok := ev.(event.EldersChanged)
	if !ok {
		t.Fatalf("event: got %T, want EldersChanged", ev)
	}
	if got.Key != newKey {
		t.Fatalf("event key mismatch")
	}
	if got.SelfStatusChange != section.StatusNone {
		t.Fatalf("self status: got %v, want StatusNone", got.SelfStatusChange)
	}
	if len(got.Elders) != 2 {
		t.Fatalf("elders: got %d, want 2", len(got.Elders))
	}

	c, err := n.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("chain length: got %d, want 2", c.Len())
	}
	if c.LastKey() != newKey {
		t.Fatalf("chain last key mismatch")
	}
}

func TestHandleEldersChangedSelfDemoted(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	adult := section.NewPeer(xorname.FromContent([]byte("adult")), "addr1", section.MinAdultAge)
	if err := n.HandleMemberJoined(adult, nil); err != nil {
		t.Fatal(err)
	}
	drainEvents(n)

	newPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	newKey := keys.PublicKeyOf(newPriv)

	sig, err := n.Sign(newKey[:])
	if err != nil {
		t.Fatal(err)
	}

	prevSAP, _ := n.OurSection()
	sap := section.NewSectionAuthorityProvider(
		prevSAP.Prefix(),
		newKey,
		map[xorname.XorName]string{adult.Name(): adult.Addr()},
	)

	if err := n.HandleEldersChanged(sap, sig, nil); err != nil {
		t.Fatal(err)
	}

	ev := expectEvent(t, n, time.Second)
	got, ok := ev.(event.EldersChanged)
	if !ok {
		t.Fatalf("event: got %T, want EldersChanged", ev)
	}
	if got.SelfStatusChange != section.StatusDemoted {
		t.Fatalf("self status: got %v, want StatusDemoted", got.SelfStatusChange)
	}
	if n.IsElder() {
		t.Fatalf("node must no longer be an elder")
	}

	// Without the section secret the node can no longer speak for the
	// section.
	err = n.SendMessage(SectionSrc(n.Name()), NodeDst(adult.Name()), []byte("x"))
	if err != ErrInvalidState {
		t.Fatalf("section send after demotion: got %v, want ErrInvalidState", err)
	}
}

func TestHandleEldersChangedBadSignature(t *testing.T) {
	n, trans := newTestNode(t, true)
	defer n.Shutdown()

	newPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	newKey := keys.PublicKeyOf(newPriv)

	// Signed by the wrong key.
	sig, err := keys.Sign(newPriv, newKey[:])
	if err != nil {
		t.Fatal(err)
	}

	prevSAP, _ := n.OurSection()
	sap := section.NewSectionAuthorityProvider(
		prevSAP.Prefix(),
		newKey,
		map[xorname.XorName]string{n.Name(): trans.LocalAddr()},
	)

	if err := n.HandleEldersChanged(sap, sig, nil); err == nil {
		t.Fatalf("expected an error for a signature by the wrong key")
	}

	if sap, _ := n.OurSection(); sap.SectionKey() == newKey {
		t.Fatalf("authority must not change on a failed update")
	}
}

func TestHandleEldersChangedWrongSecret(t *testing.T) {
	n, trans := newTestNode(t, true)
	defer n.Shutdown()

	newPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	newKey := keys.PublicKeyOf(newPriv)

	sig, err := n.Sign(newKey[:])
	if err != nil {
		t.Fatal(err)
	}

	prevSAP, _ := n.OurSection()
	sap := section.NewSectionAuthorityProvider(
		prevSAP.Prefix(),
		newKey,
		map[xorname.XorName]string{n.Name(): trans.LocalAddr()},
	)

	// A secret that is not the new section key's is rejected.
	wrongPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if err := n.HandleEldersChanged(sap, sig, wrongPriv); err != ErrInvalidState {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}

	c, err := n.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("chain must not grow on a failed update, got %d keys", c.Len())
	}
}

func splitSAPs(t *testing.T, n *Node, trans *net.InmemTransport) (zero, one *section.SectionAuthorityProvider, sigZero, sigOne keys.Signature, secret *ecdsa.PrivateKey) {
	t.Helper()

	prevSAP, err := n.OurSection()
	if err != nil {
		t.Fatal(err)
	}

	zeroPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	onePriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	zeroKey := keys.PublicKeyOf(zeroPriv)
	oneKey := keys.PublicKeyOf(onePriv)

	sigZero, err = n.Sign(zeroKey[:])
	if err != nil {
		t.Fatal(err)
	}
	sigOne, err = n.Sign(oneKey[:])
	if err != nil {
		t.Fatal(err)
	}

	prefixZero := prevSAP.Prefix().Extend(false)
	prefixOne := prevSAP.Prefix().Extend(true)

	ourName := n.Name()
	eldersFor := func(p xorname.Prefix) map[xorname.XorName]string {
		if p.Matches(ourName) {
			return map[xorname.XorName]string{ourName: trans.LocalAddr()}
		}
		far := p.SubstitutedIn(xorname.FromContent([]byte("far side")))
		return map[xorname.XorName]string{far: "far-addr"}
	}

	zero = section.NewSectionAuthorityProvider(prefixZero, zeroKey, eldersFor(prefixZero))
	one = section.NewSectionAuthorityProvider(prefixOne, oneKey, eldersFor(prefixOne))

	secret = zeroPriv
	if prefixOne.Matches(ourName) {
		secret = onePriv
	}

	return zero, one, sigZero, sigOne, secret
}

func TestHandleSectionSplit(t *testing.T) {
	n, trans := newTestNode(t, true)
	defer n.Shutdown()
	drainEvents(n)

	zero, one, sigZero, sigOne, secret := splitSAPs(t, n, trans)

	if err := n.HandleSectionSplit(zero, one, sigZero, sigOne, secret); err != nil {
		t.Fatal(err)
	}

	ev := expectEvent(t, n, time.Second)
	got, ok := ev.(event.SectionSplit)
	if !ok {
		t.Fatalf("event: got %T, want SectionSplit", ev)
	}

	prefix, err := n.OurPrefix()
	if err != nil {
		t.Fatal(err)
	}
	if prefix.BitCount() != 1 {
		t.Fatalf("post-split prefix: got %s", prefix)
	}
	if !prefix.Matches(n.Name()) {
		t.Fatalf("post-split prefix must match our name")
	}
	if got.SelfPrefix != prefix {
		t.Fatalf("event prefix mismatch")
	}

	// The sibling is now remote knowledge, and a neighbour.
	neighbours := n.NeighbourSections()
	if len(neighbours) != 1 {
		t.Fatalf("neighbours: got %d, want 1", len(neighbours))
	}
	if neighbours[0].Prefix() != prefix.Sibling() {
		t.Fatalf("neighbour prefix: got %s, want %s", neighbours[0].Prefix(), prefix.Sibling())
	}

	// The chain forked: both children of the genesis key are present.
	c, err := n.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 {
		t.Fatalf("chain length: got %d, want 3", c.Len())
	}
	if !c.HasKey(zero.SectionKey()) || !c.HasKey(one.SectionKey()) {
		t.Fatalf("chain must hold both post-split keys")
	}

	// Routing to the far side now goes through the sibling's elders.
	farName := prefix.Sibling().SubstitutedIn(xorname.FromContent([]byte("target")))
	if err := n.SendMessage(NodeSrc(n.Name()), SectionDst(farName), []byte("x")); err != nil {
		t.Fatalf("routing to sibling: %v", err)
	}
}

func TestRelocateMember(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()
	drainEvents(n)

	name := xorname.FromContent([]byte("wanderer"))
	peer := section.NewPeer(name, "addr1", section.MinAdultAge)
	if err := n.HandleMemberJoined(peer, nil); err != nil {
		t.Fatal(err)
	}

	trigger := xorname.FromContent([]byte("churn"))
	signed, err := n.RelocateMember(name, trigger)
	if err != nil {
		t.Fatal(err)
	}

	if signed.Details.Name != name {
		t.Fatalf("details name mismatch")
	}
	if signed.Details.Age != section.MinAdultAge+1 {
		t.Fatalf("relocation age: got %d, want %d", signed.Details.Age, section.MinAdultAge+1)
	}
	if !signed.Verify() {
		t.Fatalf("signed details must verify")
	}

	want := relocation.HashedDestination{}.Destination(name, trigger)
	if signed.Details.Destination != want {
		t.Fatalf("destination mismatch")
	}

	// No longer a live member.
	members := n.OurMembers()
	for _, m := range members {
		if m.Peer.Name() == name {
			t.Fatalf("relocated member still listed as joined")
		}
	}
}

func TestRelocateMemberAfterKeyRotation(t *testing.T) {
	n, trans := newTestNode(t, true)
	defer n.Shutdown()

	name := xorname.FromContent([]byte("wanderer"))
	peer := section.NewPeer(name, "addr1", section.MinAdultAge)
	if err := n.HandleMemberJoined(peer, nil); err != nil {
		t.Fatal(err)
	}

	newPriv, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	newKey := keys.PublicKeyOf(newPriv)
	sig, err := n.Sign(newKey[:])
	if err != nil {
		t.Fatal(err)
	}
	prevSAP, _ := n.OurSection()
	sap := section.NewSectionAuthorityProvider(
		prevSAP.Prefix(),
		newKey,
		map[xorname.XorName]string{n.Name(): trans.LocalAddr()},
	)
	if err := n.HandleEldersChanged(sap, sig, newPriv); err != nil {
		t.Fatal(err)
	}
	drainEvents(n)

	// The order is sealed by the rotated section key, not the node key.
	signed, err := n.RelocateMember(name, xorname.FromContent([]byte("churn")))
	if err != nil {
		t.Fatal(err)
	}
	if !signed.Verify() {
		t.Fatalf("signed details must verify under the rotated key")
	}
	if signed.Proof.LastKey() != newKey {
		t.Fatalf("proof must end at the rotated section key")
	}
}

func TestHandleRelocation(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()
	drainEvents(n)

	trigger := xorname.FromContent([]byte("churn"))
	details := relocation.Compute(nil, n.Name(), trigger, n.Age())

	proof, err := n.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	signed, err := relocation.NewSignedDetails(details, proof, n.Sign)
	if err != nil {
		t.Fatal(err)
	}

	if err := n.HandleRelocation(signed); err != nil {
		t.Fatal(err)
	}

	if n.getState() != Relocating {
		t.Fatalf("state: got %v, want Relocating", n.getState())
	}

	ev := expectEvent(t, n, time.Second)
	if _, ok := ev.(event.RelocationStarted); !ok {
		t.Fatalf("event: got %T, want RelocationStarted", ev)
	}

	ev = expectEvent(t, n, time.Second)
	rel, ok := ev.(event.Relocated)
	if !ok {
		t.Fatalf("event: got %T, want Relocated", ev)
	}
	if rel.PreviousName != n.Name() {
		t.Fatalf("previous name mismatch")
	}
	if rel.NewKeypair == nil {
		t.Fatalf("relocation must produce a fresh keypair")
	}

	ev = expectEvent(t, n, time.Second)
	if _, ok := ev.(event.RestartRequired); !ok {
		t.Fatalf("event: got %T, want RestartRequired", ev)
	}
}

func TestHandleRelocationWrongTarget(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	other := xorname.FromContent([]byte("someone else"))
	details := relocation.Compute(nil, other, xorname.FromContent([]byte("t")), 5)

	proof, err := n.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	signed, err := relocation.NewSignedDetails(details, proof, n.Sign)
	if err != nil {
		t.Fatal(err)
	}

	if err := n.HandleRelocation(signed); err != ErrInvalidState {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestHandleRelocationConcurrentAge(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()
	drainEvents(n)

	details := relocation.Compute(nil, n.Name(), xorname.FromContent([]byte("churn")), n.Age())
	proof, err := n.SectionChain()
	if err != nil {
		t.Fatal(err)
	}
	signed, err := relocation.NewSignedDetails(details, proof, n.Sign)
	if err != nil {
		t.Fatal(err)
	}

	// Age is read concurrently with the relocation applying the new one.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			n.Age()
		}
	}()

	if err := n.HandleRelocation(signed); err != nil {
		t.Fatal(err)
	}
	<-done
}

func TestElderCandidates(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	// More adults than configured seats.
	for i := 0; i < config.DefaultElderSize+2; i++ {
		name := xorname.FromContent([]byte{byte(i), 0xe1})
		peer := section.NewPeer(name, "addr", section.MinAdultAge)
		if err := n.HandleMemberJoined(peer, nil); err != nil {
			t.Fatal(err)
		}
	}
	drainEvents(n)

	candidates := n.ElderCandidates()
	if len(candidates) != config.DefaultElderSize {
		t.Fatalf("candidates: got %d, want %d", len(candidates), config.DefaultElderSize)
	}
}

func TestSplitRecommended(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	if n.SplitRecommended() {
		t.Fatalf("a section of one must not want to split")
	}

	// Fill both halves of the name space to the configured threshold.
	half := (config.DefaultRecommendedSectionSize + 1) / 2
	zero := xorname.NewPrefix(1, xorname.XorName{})
	one := zero.Sibling()
	for i := 0; i < half; i++ {
		seed := xorname.FromContent([]byte{byte(i), 0x51})
		for _, p := range []xorname.Prefix{zero, one} {
			peer := section.NewPeer(p.SubstitutedIn(seed), "addr", section.MinAdultAge)
			if err := n.HandleMemberJoined(peer, nil); err != nil {
				t.Fatal(err)
			}
		}
	}
	drainEvents(n)

	if !n.SplitRecommended() {
		t.Fatalf("both halves hold %d adults, split should be recommended", half)
	}
}

func TestStoreRecovery(t *testing.T) {
	key, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	st := store.NewInmemStore()

	conf := config.NewDefaultConfig()
	conf.Key = key
	conf.First = true
	conf.WithLogger(common.NewTestLogger(t))

	_, trans := net.NewInmemTransport("")
	n := NewNode(conf, trans, st, nil)
	if err := n.Init(); err != nil {
		t.Fatal(err)
	}
	sap, err := n.OurSection()
	if err != nil {
		t.Fatal(err)
	}
	n.Shutdown()

	// Restart against the same store, no longer as First.
	conf2 := config.NewDefaultConfig()
	conf2.Key = key
	conf2.WithLogger(common.NewTestLogger(t))

	_, trans2 := net.NewInmemTransport("")
	n2 := NewNode(conf2, trans2, st, nil)
	if err := n2.Init(); err != nil {
		t.Fatal(err)
	}
	defer n2.Shutdown()

	if n2.getState() != Active {
		t.Fatalf("state after recovery: got %v, want Active", n2.getState())
	}
	sap2, err := n2.OurSection()
	if err != nil {
		t.Fatal(err)
	}
	if sap2.SectionKey() != sap.SectionKey() {
		t.Fatalf("recovered section key mismatch")
	}
}

func TestGetStats(t *testing.T) {
	n, _ := newTestNode(t, true)
	defer n.Shutdown()

	stats := n.GetStats()
	if stats["state"] != "Active" {
		t.Fatalf("stats state: got %s", stats["state"])
	}
	if stats["section_size"] != "1" {
		t.Fatalf("stats section_size: got %s", stats["section_size"])
	}
	if stats["moniker"] != "test" {
		t.Fatalf("stats moniker: got %s", stats["moniker"])
	}
}
