package naming

var adjectives = []string{
	"Able", "Agile", "Amber", "Ancient", "Bold", "Brave", "Bright", "Brisk",
	"Calm", "Clever", "Cosmic", "Crisp", "Curious", "Daring", "Dazzling", "Eager",
	"Electric", "Fancy", "Fierce", "Gentle", "Giant", "Glad", "Golden", "Graceful",
	"Happy", "Honest", "Humble", "Icy", "Jolly", "Keen", "Kind", "Lively",
	"Lucky", "Mellow", "Merry", "Mighty", "Misty", "Noble", "Odd", "Proud",
	"Quick", "Quiet", "Rapid", "Royal", "Rusty", "Shiny", "Silent", "Silly",
	"Sleepy", "Smooth", "Snowy", "Spicy", "Sunny", "Swift", "Tidy", "Tiny",
	"Velvet", "Vivid", "Warm", "Wild", "Wise", "Witty", "Zany", "Zesty",
}

var animals = []string{
	"Aardvark", "Albatross", "Alpaca", "Antelope", "Badger", "Beaver", "Bison", "Bobcat",
	"Buffalo", "Camel", "Caribou", "Cheetah", "Cobra", "Coyote", "Crane", "Dingo",
	"Dolphin", "Eagle", "Falcon", "Ferret", "Finch", "Gazelle", "Gecko", "Gibbon",
	"Heron", "Hyena", "Ibis", "Iguana", "Jackal", "Jaguar", "Koala", "Lemur",
	"Leopard", "Lynx", "Marmot", "Mole", "Moose", "Narwhal", "Newt", "Ocelot",
	"Otter", "Panda", "Pelican", "Puffin", "Quail", "Rabbit", "Raven", "Salmon",
	"Seal", "Sloth", "Stork", "Tapir", "Tiger", "Toucan", "Turtle", "Urchin",
	"Viper", "Walrus", "Weasel", "Wombat", "Yak", "Zebra",
}
