package matcher

// teamSuffixes 队名末尾的吉祥物/别名后缀清单。
// 顺序无关（匹配时取最长），清单内容不可随意增删：
// 它直接决定哪些比赛能配对成功。
var teamSuffixes = []string{
	// NBA
	"MAVERICKS",
	"JAZZ",
	"HAWKS",
	"CELTICS",
	"PISTONS",
	"PACERS",
	"HEAT",
	"THUNDER",
	"WARRIORS",
	"SUNS",
	"LAKERS",
	"CLIPPERS",
	"BLAZERS",
	"KINGS",
	"SPURS",
	"GRIZZLIES",
	"PELICANS",
	"ROCKETS",
	"TIMBERWOLVES",
	"NUGGETS",
	"BUCKS",
	"BULLS",
	"CAVALIERS",
	"RAPTORS",
	"NETS",
	"KNICKS",
	"WIZARDS",
	"HORNETS",
	"MAGIC",
	"TRAIL BLAZERS",
	"76ERS",
	"SIXERS",
	"CAVS",
	// NFL
	"PACKERS",
	"BEARS",
	"LIONS",
	"VIKINGS",
	"COWBOYS",
	"GIANTS",
	"EAGLES",
	"COMMANDERS",
	"REDSKINS",
	"BUCCANEERS",
	"SAINTS",
	"FALCONS",
	"PANTHERS",
	"RAMS",
	"SEAHAWKS",
	"49ERS",
	"NINERS",
	"CARDINALS",
	"RAVENS",
	"BENGALS",
	"BROWNS",
	"STEELERS",
	"TEXANS",
	"COLTS",
	"JAGUARS",
	"TITANS",
	"BRONCOS",
	"CHIEFS",
	"RAIDERS",
	"CHARGERS",
	"BILLS",
	"DOLPHINS",
	"PATRIOTS",
	"JETS",
	// NHL
	"BRUINS",
	"SABRES",
	"RED WINGS",
	"BLACKHAWKS",
	"AVALANCHE",
	"BLUE JACKETS",
	"WILD",
	"PREDATORS",
	"BLUES",
	"FLAMES",
	"OILERS",
	"CANUCKS",
	"DUCKS",
	"COYOTES",
	"GOLDEN KNIGHTS",
	"KRAKEN",
	"SHARKS",
	"HURRICANES",
	"LIGHTNING",
	"CAPITALS",
	"FLYERS",
	"PENGUINS",
	"RANGERS",
	"ISLANDERS",
	"DEVILS",
	"MAPLE LEAFS",
	"SENATORS",
	"CANADIENS",
	// MLB
	"RED SOX",
	"YANKEES",
	"ORIOLES",
	"RAYS",
	"WHITE SOX",
	"INDIANS",
	"GUARDIANS",
	"TIGERS",
	"ROYALS",
	"TWINS",
	"ASTROS",
	"ANGELS",
	"ATHLETICS",
	"MARINERS",
	"BRAVES",
	"MARLINS",
	"METS",
	"PHILLIES",
	"NATIONALS",
	"CUBS",
	"REDS",
	"BREWERS",
	"PIRATES",
	"DIAMONDBACKS",
	"ROCKIES",
	"DODGERS",
	"PADRES",
	// College - power conferences
	"AGGIES",
	"WILDCATS",
	"BULLDOGS",
	"CRIMSON TIDE",
	"VOLUNTEERS",
	"GATORS",
	"GAMECOCKS",
	"RAZORBACKS",
	"LONGHORNS",
	"SOONERS",
	"JAYHAWKS",
	"CYCLONES",
	"MOUNTAINEERS",
	"HUSKIES",
	"TROJANS",
	"CARDINAL",
	"SUN DEVILS",
	"GOLDEN BEARS",
	"BEAVERS",
	"COUGARS",
	"UTES",
	"BUFFALOES",
	"CORNHUSKERS",
	"BADGERS",
	"HAWKEYES",
	"SPARTANS",
	"WOLVERINES",
	"BUCKEYES",
	"NITTANY LIONS",
	"TERRAPINS",
	"SCARLET KNIGHTS",
	"HOOSIERS",
	"FIGHTING IRISH",
	"BLUE DEVILS",
	"TAR HEELS",
	"ORANGE",
	"DEMON DEACONS",
	"YELLOW JACKETS",
	"SEMINOLES",
	"ORANGEMEN",
	"WOLFPACK",
	"HOKIES",
	"MUSTANGS",
	"BEARCATS",
	"HORNED FROGS",
	"RED RAIDERS",
	"KNIGHTS",
	"BLUEJAYS",
	"BLUE DEMONS",
	"HOYAS",
	"GOLDEN EAGLES",
	"FRIARS",
	"RED STORM",
	"MUSKETEERS",
	"FIGHTING ILLINI",
	"GOLDEN GOPHERS",
	"BOILERMAKERS",
	"REBELS",
	"COMMODORES",
	"OWLS",
	// College - mid-majors
	"AZTECS",
	"LOBOS",
	"SHOCKERS",
	"MIDSHIPMEN",
	"GREEN WAVE",
	"GOLDEN HURRICANE",
	"ROADRUNNERS",
	"MEAN GREEN",
	"GAELS",
	"DUKES",
	"BILLIKENS",
	"SPIDERS",
	"RAMBLERS",
	"MINUTEMEN",
	"EXPLORERS",
	"BONNIES",
	"WAVES",
	"PILOTS",
	"TOREROS",
	"DONS",
	"BOBCATS",
	"PEACOCKS",
	"CATAMOUNTS",
	"COLONIALS",
	"WOLF PACK",
	// College - smaller conferences
	"TERRIERS",
	"BISON",
	"CRUSADERS",
	"LEOPARDS",
	"BLACK KNIGHTS",
	"PHOENIX",
	"SEAWOLVES",
	"DRAGONS",
	"BLUE HENS",
	"FIGHTING CAMELS",
	"SYCAMORES",
	"BEACONS",
	"MASTODONS",
	"SALUKIS",
	"RACERS",
	"SKYHAWKS",
	"LUMBERJACKS",
	"COLONELS",
	"CHANTICLEERS",
	"THUNDERING HERD",
	"REDHAWKS",
	"MONARCHS",
	"VANDALS",
	"CRIMSON",
	"QUAKERS",
	"ANTEATERS",
	"GAUCHOS",
	"MOCS",
	"PALADINS",
	"KEYDETS",
	"STAGS",
	"JASPERS",
	"RED FOXES",
	"PURPLE EAGLES",
	"BRONCS",
	"GOLDEN GRIFFINS",
	"PURPLE ACES",
	"REDBIRDS",
	"NORSE",
	"GOLDEN GRIZZLIES",
	"MOUNTAIN HAWKS",
	"GREYHOUNDS",
	"PRIDE",
	"TRIBE",
	"PIONEERS",
	"JACKRABBITS",
	"RED WOLVES",
	"WARHAWKS",
	"RAGIN CAJUNS",
	"THUNDERBIRDS",
	"LANCERS",
	"ANTELOPES",
	"GOVERNORS",
	"OSPREYS",
	"HATTERS",
	"MATADORS",
	"HIGHLANDERS",
	"TRITONS",
	"BIG RED",
	"BIG GREEN",
	"RATTLERS",
	"DELTA DEVILS",
	"PRIVATEERS",
	"DEMONS",
	"SCREAMING EAGLES",
	"LEATHERNECKS",
	"TRAILBLAZERS",
	"RAINBOW WARRIORS",
}
