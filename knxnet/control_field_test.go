package knxnet

import "testing"

func TestControlField_IsDestinationGroup(t *testing.T) {
	group := ControlField(0).WithDestinationGroup(true)
	if !group.IsDestinationGroup() {
		t.Error("WithDestinationGroup(true) should set bit 7")
	}

	individual := group.WithDestinationGroup(false)
	if individual.IsDestinationGroup() {
		t.Error("WithDestinationGroup(false) should clear bit 7")
	}
}

func TestControlField_WithDestinationGroup_PreservesOtherBits(t *testing.T) {
	base := ControlField(0xBCE0)
	withGroup := base.WithDestinationGroup(true)
	if withGroup&^bitDestinationGA != base&^bitDestinationGA {
		t.Errorf("WithDestinationGroup must not touch other bits: got %#04x, base %#04x", withGroup, base)
	}
}

func TestControlField_Predicates(t *testing.T) {
	c := ControlField(0xBCE0)
	if !c.IsDestinationGroup() {
		t.Error("0xBCE0 should have bit 7 set (group destination)")
	}
	if c.IsBroadcast() {
		t.Error("0xBCE0 bit 12 set -> not a system broadcast")
	}
	if !c.HasDoNotRepeat() {
		t.Error("0xBCE0 bit 13 set -> do-not-repeat")
	}
}
