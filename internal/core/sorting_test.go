package core

import "testing"

func TestSortClients(t *testing.T) {
	clients := []Client{
		{ID: "1", FirstName: "boris", LastName: "Ivanov"},
		{ID: "2", FirstName: "Anna", LastName: "petrova"},
		{ID: "3", FirstName: " anna ", LastName: "Orlova"},
	}
	SortClients(clients)
	want := []string{"3", "2", "1"} // "anna Orlova" < "Anna petrova" < "boris Ivanov"
	for i, id := range want {
		if clients[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, clients[i].ID, id)
		}
	}
}

func TestSortServices(t *testing.T) {
	services := []Service{
		{ID: "1", Name: "Massage", UsageCount: 2},
		{ID: "2", Name: "Haircut", UsageCount: 5},
		{ID: "3", Name: "Coloring", UsageCount: 2},
		{ID: "4", Name: "manicure", UsageCount: 2}, // lower-case sorts after upper-case names
	}
	SortServices(services)
	want := []string{"2", "3", "1", "4"}
	for i, id := range want {
		if services[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, services[i].ID, id)
		}
	}
}

func TestSortByTimeUntimedLast(t *testing.T) {
	records := []Appointment{
		{ID: "a", Date: "2024-03-15", ClientID: "c", ServiceIDs: []string{"s"}},
		{ID: "b", Date: "2024-03-15", ClientID: "c", ServiceIDs: []string{"s"}, Time: "14:00"},
		{ID: "c", Date: "2024-03-15", ClientID: "c", ServiceIDs: []string{"s"}, Time: "09:00"},
		{ID: "d", Date: "2024-03-15", ClientID: "c", ServiceIDs: []string{"s"}},
	}
	SortByTime(records)
	want := []string{"c", "b", "a", "d"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, records[i].ID, id)
		}
	}
}

func TestSortByTimeStable(t *testing.T) {
	records := []Appointment{
		{ID: "first", Time: "10:00"},
		{ID: "second", Time: "10:00"},
		{ID: "third", Time: "10:00"},
	}
	SortByTime(records)
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("equal times must keep insertion order: position %d got %s", i, records[i].ID)
		}
	}
}
